// Package api exposes the question answering service over HTTP: a
// streaming chat endpoint, index management, monitoring, evaluation,
// and document upload.
package api

import (
	"errors"
	"net/http"

	"github.com/answerdesk/answerdesk/internal/docstore"
	"github.com/answerdesk/answerdesk/internal/generate"
	"github.com/answerdesk/answerdesk/internal/log"
	"github.com/answerdesk/answerdesk/internal/monitor"
	"github.com/answerdesk/answerdesk/internal/rag"
	"github.com/answerdesk/answerdesk/internal/ratelimit"
)

// ServerConfig carries the collaborators a Server needs. All fields
// except TrustProxy and MaxUploadBytes are required.
type ServerConfig struct {
	Logger         log.Logger
	Retriever      *rag.Retriever
	Generator      generate.Generator
	Limiter        *ratelimit.Limiter
	Monitor        *monitor.Collector
	Store          *docstore.Store
	AdminSecret    string
	TrustProxy     bool
	MaxUploadBytes int64
}

const defaultMaxUploadBytes = 5 << 20

// Server routes HTTP requests to the service. Create with NewServer
// and mount via ServeHTTP.
type Server struct {
	mux            *http.ServeMux
	logger         log.Logger
	retriever      *rag.Retriever
	generator      generate.Generator
	limiter        *ratelimit.Limiter
	monitor        *monitor.Collector
	store          *docstore.Store
	adminSecret    string
	trustProxy     bool
	maxUploadBytes int64
}

// NewServer wires all routes. It fails fast on missing collaborators
// rather than panicking at request time.
func NewServer(cfg ServerConfig) (*Server, error) {
	switch {
	case cfg.Logger == nil:
		return nil, errors.New("logger is required")
	case cfg.Retriever == nil:
		return nil, errors.New("retriever is required")
	case cfg.Generator == nil:
		return nil, errors.New("generator is required")
	case cfg.Limiter == nil:
		return nil, errors.New("rate limiter is required")
	case cfg.Monitor == nil:
		return nil, errors.New("monitor is required")
	case cfg.Store == nil:
		return nil, errors.New("document store is required")
	case cfg.AdminSecret == "":
		return nil, errors.New("admin secret is required")
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}

	s := &Server{
		mux:            http.NewServeMux(),
		logger:         cfg.Logger.With("component", "api"),
		retriever:      cfg.Retriever,
		generator:      cfg.Generator,
		limiter:        cfg.Limiter,
		monitor:        cfg.Monitor,
		store:          cfg.Store,
		adminSecret:    cfg.AdminSecret,
		trustProxy:     cfg.TrustProxy,
		maxUploadBytes: cfg.MaxUploadBytes,
	}

	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("GET /api/index", s.handleIndexStatus)
	s.mux.HandleFunc("POST /api/index", s.requireAdmin(s.handleIndexRebuild))
	s.mux.HandleFunc("GET /api/monitoring", s.requireAdmin(s.handleMonitoring))
	s.mux.HandleFunc("POST /api/monitoring/reset", s.requireAdmin(s.handleMonitoringReset))
	s.mux.HandleFunc("GET /api/eval", s.requireAdmin(s.handleEval))
	s.mux.HandleFunc("POST /api/upload", s.requireAdmin(s.handleUpload))
	s.mux.HandleFunc("GET /health", s.handleHealth)

	return s, nil
}

// ServeHTTP applies the middleware stack in order: recovery catches
// panics from everything below, request IDs are stamped before
// logging reads them back.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var handler http.Handler = s.mux
	handler = loggingMiddleware(s.logger)(handler)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(s.logger)(handler)
	handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
