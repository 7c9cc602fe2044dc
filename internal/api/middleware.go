package api

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestLogger assigns each request an ID and logs method, path,
// status, and duration once the handler returns.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(recorder, r)

		log.Printf("[%s] %s %s -> %d (%dms)",
			requestID, r.Method, r.URL.Path, recorder.statusCode,
			time.Since(start).Milliseconds())
	})
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.headerWritten {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.headerWritten = true
	}
}
