package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vobe/authz-service/infrastructure/service/logger"
)

const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationIDMiddleware ensures every request/response carries a correlation ID
// and exposes it to the structured logger through the request context.
func CorrelationIDMiddleware(next http.Handler) http.Handler {
	return CorrelationIDMiddlewareWithHeader(CorrelationIDHeader)(next)
}

// CorrelationIDMiddlewareWithHeader reads and echoes the id under header.
func CorrelationIDMiddlewareWithHeader(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = CorrelationIDHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := r.Header.Get(header)
			if cid == "" {
				cid = uuid.NewString()
			}
			// propagate header to response
			w.Header().Set(header, cid)
			next.ServeHTTP(w, r.WithContext(logger.WithCorrelationID(r.Context(), cid)))
		})
	}
}
