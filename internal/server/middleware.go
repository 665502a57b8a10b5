package server

import (
	"log"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamgui_http_requests_total",
		Help: "HTTP requests by method, route pattern, and status code.",
	}, []string{"method", "pattern", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamgui_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "pattern"})
)

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += n
	return n, err
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.statusCode = statusCode
}

// middlewareObserve logs each request and records prometheus metrics,
// labeled by the mux route pattern rather than the raw path.
func middlewareObserve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(sw, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		duration := time.Since(start)

		requestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(sw.statusCode)).Inc()
		requestDuration.WithLabelValues(r.Method, pattern).Observe(duration.Seconds())

		log.Printf("%s %s %d %dB %s", r.Method, r.URL.Path, sw.statusCode, sw.bytesWritten, duration.Round(time.Millisecond))
	})
}

// middlewarePanic converts handler panics into 500 responses.
func middlewarePanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if e := recover(); e != nil {
				log.Printf("panic serving %s %s: %v\n%s", r.Method, r.URL.Path, e, debug.Stack())
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
