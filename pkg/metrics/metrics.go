package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	extractionOutcomeCollectorName = "form_extraction_requests_total"
	extractionLatencyCollectorName = "form_extraction_duration_milliseconds"
)

var (
	extractionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: extractionOutcomeCollectorName,
			Help: "Number of extraction pipeline runs partitioned by form code and outcome.",
		}, []string{"form_code", "outcome"})

	extractionLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    extractionLatencyCollectorName,
		Help:    "Time spent executing the extraction pipeline partitioned by form code.",
		Buckets: []float64{100, 500, 1000, 5000, 15000, 60000},
	}, []string{"form_code"})
)

func init() {
	prometheus.MustRegister(extractionOutcomes, extractionLatency)
}

// RecordExtraction counts one pipeline run and its latency in milliseconds.
func RecordExtraction(formCode, outcome string, latencyMs float64) {
	extractionOutcomes.WithLabelValues(formCode, outcome).Inc()
	extractionLatency.WithLabelValues(formCode).Observe(latencyMs)
}
