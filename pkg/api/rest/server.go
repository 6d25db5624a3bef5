// Package rest implements the HTTP control surface: transmit requests,
// history queries, runtime configuration and status.
package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hausnet/irbridge/pkg/api/middleware"
	"github.com/hausnet/irbridge/pkg/api/ws"
	"github.com/hausnet/irbridge/pkg/config"
	"github.com/hausnet/irbridge/pkg/engine"
	"github.com/hausnet/irbridge/pkg/logger"
)

// Server is the REST API server.
type Server struct {
	engine  *engine.Engine
	runtime *config.Runtime
	hub     *ws.Hub
	log     *logger.Logger
	srv     *http.Server
	config  ServerConfig
}

// ServerConfig holds API server configuration.
type ServerConfig struct {
	Port int
	Auth config.AuthConfig
}

// NewServer creates a new REST API server. hub may be nil when event
// streaming is disabled.
func NewServer(eng *engine.Engine, runtime *config.Runtime, hub *ws.Hub, log *logger.Logger, cfg ServerConfig) *Server {
	return &Server{
		engine:  eng,
		runtime: runtime,
		hub:     hub,
		log:     log,
		config:  cfg,
	}
}

// Start starts the API server.
func (s *Server) Start() error {
	r := mux.NewRouter()
	s.registerRoutes(r)

	if s.config.Auth.Enabled {
		auth := middleware.NewAuth(s.config.Auth.Keys, s.config.Auth.JWTSecret)
		r.Use(auth.Handler)
		s.log.Info("API authentication enabled")
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	if s.config.Port == 0 {
		addr = ":8080"
	}

	s.srv = &http.Server{
		Addr:    addr,
		Handler: r,
	}

	s.log.Info("API server listening", "addr", addr)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("API server failed", "error", err)
		}
	}()

	return nil
}

// Stop stops the API server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) registerRoutes(r *mux.Router) {
	v1 := r.PathPrefix("/api/v1").Subrouter()

	// System
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/api/v1/login", s.handleLogin).Methods("POST")
	v1.HandleFunc("/status", s.handleStatus).Methods("GET")

	// IR
	v1.HandleFunc("/send", s.handleSend).Methods("POST")
	v1.HandleFunc("/history/sent", s.handleListSent).Methods("GET")
	v1.HandleFunc("/history/received", s.handleListReceived).Methods("GET")
	v1.HandleFunc("/history/received/{id:[0-9]+}", s.handleGetReceived).Methods("GET")

	// Runtime configuration
	v1.HandleFunc("/config", s.handleGetConfig).Methods("GET")
	v1.HandleFunc("/config", s.handlePutConfig).Methods("PUT")

	// Event stream
	if s.hub != nil {
		v1.HandleFunc("/events", s.hub.Handler)
	}
}
