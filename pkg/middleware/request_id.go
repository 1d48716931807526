package middleware

import (
	"net/http"

	"github.com/formweave/extraction-planner/pkg/requestid"
)

// RequestID propagates the x-request-id header into the request context,
// generating a fresh UUID when the caller did not provide one. Downstream
// log lines correlate on this value.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("x-request-id")
		if reqID == "" {
			reqID = requestid.Generate()
		}

		ctx := requestid.ToContext(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
