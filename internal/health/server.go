// Package health provides a lightweight HTTP server for container health
// checks. Readiness reflects the refresh pipeline: a cycle must have
// completed, and not gone stale, for the service to report ready.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DatabasePinger checks connectivity to the optional cycle-history store.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// StatusResponse is the JSON body for /health and /live.
type StatusResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ReadyResponse is the JSON body for /ready.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks,omitempty"`
	LastCycle string            `json:"last_cycle,omitempty"`
}

// Config holds the configuration for the health server.
type Config struct {
	ServiceName string
	Port        string
	// MaxCycleAge bounds how old the last successful cycle may be before
	// readiness flips; zero disables the staleness check.
	MaxCycleAge time.Duration
	Logger      *logrus.Logger
	DB          DatabasePinger
}

// Server exposes /health, /live and /ready for a long-running refresh
// process.
type Server struct {
	serviceName string
	port        string
	maxCycleAge time.Duration
	server      *http.Server
	logger      *logrus.Logger
	db          DatabasePinger

	mu        sync.RWMutex
	lastCycle time.Time
	lastErr   error
}

// NewServer creates a health check server.
func NewServer(cfg Config) *Server {
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	return &Server{
		serviceName: cfg.ServiceName,
		port:        port,
		maxCycleAge: cfg.MaxCycleAge,
		logger:      cfg.Logger,
		db:          cfg.DB,
	}
}

// RecordCycle notes the outcome of a refresh cycle. A nil error marks the
// service ready; a failure keeps the previous success time but surfaces the
// error on /ready.
func (s *Server) RecordCycle(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	if err == nil {
		s.lastCycle = time.Now()
	}
}

// Start starts the health check server in the background and shuts it down
// when ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", s.handleLive)

	s.server = &http.Server{
		Addr:         ":" + s.port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"port":    s.port,
				"service": s.serviceName,
			}).Info("Health check server starting")
		}
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.WithError(err).Error("Health check server error")
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()
}

// Shutdown gracefully shuts down the health check server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:    "ok",
		Service:   s.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok", Service: s.serviceName})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	lastCycle := s.lastCycle
	lastErr := s.lastErr
	s.mu.RUnlock()

	checks := make(map[string]string)
	ready := true

	switch {
	case lastCycle.IsZero():
		ready = false
		checks["cycle"] = "no completed cycle yet"
	case s.maxCycleAge > 0 && time.Since(lastCycle) > s.maxCycleAge:
		ready = false
		checks["cycle"] = fmt.Sprintf("stale: last success %s ago", time.Since(lastCycle).Round(time.Second))
	case lastErr != nil:
		checks["cycle"] = fmt.Sprintf("last attempt failed: %v", lastErr)
	default:
		checks["cycle"] = "ok"
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			ready = false
			checks["database"] = fmt.Sprintf("error: %v", err)
		} else {
			checks["database"] = "ok"
		}
	}

	response := ReadyResponse{
		Service: s.serviceName,
		Checks:  checks,
	}
	if !lastCycle.IsZero() {
		response.LastCycle = lastCycle.UTC().Format(time.RFC3339)
	}

	status := http.StatusOK
	response.Status = "ok"
	if !ready {
		status = http.StatusServiceUnavailable
		response.Status = "not_ready"
	}
	writeJSON(w, status, response)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
