package devserver

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var histogramBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

func (s *Server) initMetrics() {
	s.metricsOnce.Do(func() {
		s.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filesync",
			Subsystem: "devserver",
			Name:      "http_requests_total",
			Help:      "Count of served asset requests",
		}, []string{"method", "status"})

		s.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "filesync",
			Subsystem: "devserver",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of asset requests",
			Buckets:   histogramBuckets,
		}, []string{"method", "status"})

		collectors := []prometheus.Collector{s.requestTotal, s.requestDuration}
		for _, collector := range collectors {
			if err := prometheus.Register(collector); err != nil {
				if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
					switch existing := already.ExistingCollector.(type) {
					case *prometheus.CounterVec:
						s.requestTotal = existing
					case *prometheus.HistogramVec:
						s.requestDuration = existing
					}
				}
			}
		}
		s.metricsInitialized = true
	})
}

func (s *Server) recordRequest(method string, status int, duration time.Duration) {
	if !s.metricsInitialized {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"status": strconv.Itoa(status),
	}
	s.requestTotal.With(labels).Inc()
	s.requestDuration.With(labels).Observe(duration.Seconds())
}
