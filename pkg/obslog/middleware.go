package obslog

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "obslog-request-id"

// WithRequestID attaches requestID to ctx for downstream retrieval via
// RequestIDFromCtx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromCtx retrieves the request ID previously attached by
// WithRequestID, or "" if none is present.
func RequestIDFromCtx(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestLogger wraps next, logging every request with a correlation
// ID, status, duration, and response size.
//
// Grounded on the teacher's pkg/middleware/logging.go RequestLogger,
// generalized to emit through a Logger instead of the raw log
// package directly.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx := WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		logger := NewLogger(requestID).WithRoute(r.URL.Path)
		level := LevelInfo
		switch {
		case wrapped.statusCode >= 500:
			level = LevelError
		case wrapped.statusCode >= 400:
			level = LevelWarn
		}

		logger.LogWithFields(level, "request completed", map[string]interface{}{
			"method":       r.Method,
			"path":         r.URL.Path,
			"query":        r.URL.RawQuery,
			"status":       wrapped.statusCode,
			"duration_ms":  time.Since(start).Milliseconds(),
			"bytes":        wrapped.bytesWritten,
			"remote_addr":  r.RemoteAddr,
			"user_agent":   r.UserAgent(),
		})
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
