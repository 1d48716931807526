package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/formweave/extraction-planner/internal/extraction"
	"github.com/formweave/extraction-planner/pkg/metrics"
)

// ExtractionService runs the extraction pipeline for synchronous requests
// and exposes the registered form codes.
type ExtractionService struct {
	registry *extraction.Registry
	pipeline *extraction.Pipeline
	logger   *zap.SugaredLogger
}

func NewExtractionService(registry *extraction.Registry) *ExtractionService {
	return &ExtractionService{
		registry: registry,
		pipeline: extraction.NewPipeline(registry),
		logger:   zap.S().Named("extraction_service"),
	}
}

// Run drives one utterance through the pipeline and returns the terminal
// working record. Outcome and latency are counted per form code.
func (s *ExtractionService) Run(ctx context.Context, utterance, formCode string) *extraction.Record {
	start := time.Now()
	rec := s.pipeline.Run(ctx, extraction.NewRecord(utterance, formCode))

	outcome := "succeeded"
	if rec.Failed() {
		outcome = "failed"
	}
	metrics.RecordExtraction(formCode, outcome, float64(time.Since(start).Milliseconds()))

	return rec
}

// Extract runs the pipeline synchronously and returns the result, or an
// ErrUnknownFormCode / ErrExtractionFailed describing the failure.
func (s *ExtractionService) Extract(ctx context.Context, utterance, formCode string) (map[string]any, error) {
	if !s.registry.IsRegistered(formCode) {
		return nil, NewErrUnknownFormCode(formCode)
	}

	rec := s.Run(ctx, utterance, formCode)
	if rec.Failed() {
		return nil, NewErrExtractionFailed(rec.ErrorCode, rec.ErrorMessage)
	}
	return rec.Result, nil
}

// Codes returns the registered form codes.
func (s *ExtractionService) Codes() []string {
	return s.registry.Codes()
}

// IsRegistered reports whether the form code has an executor.
func (s *ExtractionService) IsRegistered(formCode string) bool {
	return s.registry.IsRegistered(formCode)
}
