// Package server wires the turn engine behind the skill's HTTP surface.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pico-voice/pico-skill/pkg/skill/alexa"
	"github.com/pico-voice/pico-skill/pkg/skill/config"
	"github.com/pico-voice/pico-skill/pkg/skill/handlers"
	"github.com/pico-voice/pico-skill/pkg/skill/metrics"
	"github.com/pico-voice/pico-skill/pkg/skill/mw"
)

// maxRequestBody bounds the inbound envelope; platform requests are small.
const maxRequestBody = 1 << 20

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	engine *handlers.Engine
	mux    *http.ServeMux
}

func New(cfg config.Config, engine *handlers.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		engine: engine,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/alexa", s.handleAlexa)
	s.mux.Handle("/metrics", metrics.Handler())
}

// Handler returns the middleware-wrapped root handler.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleAlexa decodes one request envelope, runs the turn engine, and
// writes the response envelope. Decode failures are the only 4xx path; a
// decoded request always yields a 200 with spoken content.
func (s *Server) handleAlexa(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var env alexa.RequestEnvelope
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&env); err != nil {
		s.logger.Warn("bad request envelope", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	resp := s.engine.HandleEnvelope(r.Context(), &env)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("write response failed", "error", err)
	}
}
