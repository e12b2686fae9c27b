// Package devserver hosts the local development build of the UI: it exports
// the selected environment profile and serves the debug dist tree.
package devserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultProfile is used when the caller names no environment profile.
const DefaultProfile = ".env.local"

// ProfileVars are the environment variable names both consumers of the
// profile read: the build script reads the plain name, the asset pipeline
// reads the prefixed alias.
var ProfileVars = [2]string{"ENV_PROFILE", "TRUNK_ENV_PROFILE"}

// ExportProfile resolves the profile name (empty means DefaultProfile) and
// exports it under both variable names.
func ExportProfile(profile string) (string, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	for _, name := range ProfileVars {
		if err := os.Setenv(name, profile); err != nil {
			return "", fmt.Errorf("set %s: %w", name, err)
		}
	}
	return profile, nil
}

// Server serves static development assets with request logging and metrics.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	dir    string

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

// New creates a server for the given dist directory.
func New(logger *slog.Logger, dir string) (*Server, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("dist directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dist path %s is not a directory", dir)
	}
	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		dir:    dir,
	}
	s.initMetrics()
	s.routes()
	return s, nil
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.mux.ServeHTTP(w, req)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/metrics", promhttp.Handler().ServeHTTP)
	s.mux.Handle("/", s.instrument(http.FileServer(http.Dir(s.dir))))
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		recorder := &responseRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(recorder, req)
		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.recordRequest(req.Method, status, elapsed)
		s.logger.Debug("request served", "method", req.Method, "path", req.URL.Path, "status", status, "elapsed", elapsed.Round(time.Microsecond).String())
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.status = code
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if rr.status == 0 {
		rr.status = http.StatusOK
	}
	return rr.ResponseWriter.Write(b)
}
