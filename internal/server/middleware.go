package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// observe logs and counts every request by its matched route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		dur := time.Since(start)
		s.log.LogHTTPRequest(r.Method, route, rec.status, dur)
		s.metrics.RecordHTTPRequest(route, strconv.Itoa(rec.status), dur)
	})
}

// recoverer turns a handler panic into a 500 response.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.log.Error().
					Str("path", r.URL.Path).
					Interface("panic", v).
					Msg("handler panicked")
				writeJSON(w, http.StatusInternalServerError, errorResponse{
					Error:  "Internal server error",
					Detail: fmt.Sprint(v),
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
