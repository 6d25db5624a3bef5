package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/hausnet/irbridge/pkg/config"
	"github.com/hausnet/irbridge/pkg/engine"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req engine.TransmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := s.engine.Transmit(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, engine.ErrUnsupportedProtocol):
			respondError(w, http.StatusBadRequest, "Unsupported protocol: "+req.Type)
		default:
			respondError(w, http.StatusInternalServerError, "Transmit failed: "+err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleListSent(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.ListSent())
}

func (s *Server) handleListReceived(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.engine.ListReceived())
}

func (s *Server) handleGetReceived(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	n, err := strconv.Atoi(vars["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid history index")
		return
	}

	rec, ok := s.engine.GetReceived(n)
	if !ok {
		respondError(w, http.StatusNotFound, "No such history entry")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.runtime.Snapshot()
	// Credentials stay out of API responses.
	cfg.MQTT.Password = ""
	cfg.API.Auth.JWTSecret = ""
	cfg.API.Auth.Keys = nil
	respondJSON(w, http.StatusOK, cfg)
}

// configUpdateRequest carries the runtime-changeable settings.
type configUpdateRequest struct {
	Forwarding            *config.ForwardingConfig `json:"forwarding,omitempty"`
	SensorIntervalSeconds *int                     `json:"sensor_interval_seconds,omitempty"`
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var req configUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	s.runtime.Update(func(cfg *config.Config) {
		if req.Forwarding != nil {
			cfg.Forwarding = *req.Forwarding
		}
		if req.SensorIntervalSeconds != nil {
			cfg.Sensor.Interval = time.Duration(*req.SensorIntervalSeconds) * time.Second
		}
	})

	s.log.Info("runtime configuration updated")
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
