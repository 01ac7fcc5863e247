package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mbocsi/dutchctl/client"
)

type commandsResponse struct {
	Target   string   `json:"target"`
	Commands []string `json:"commands"`
}

type volumeRequest struct {
	Gain *float64 `json:"gain"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type okResponse struct {
	Command string `json:"command"`
	Status  string `json:"status"`
}

func (s *Server) HandleCommands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, commandsResponse{
		Target:   s.target,
		Commands: s.runner.Commands(),
	})
}

func (s *Server) HandleRunCommand(w http.ResponseWriter, r *http.Request) {
	s.runCommand(w, r, chi.URLParam(r, "name"))
}

func (s *Server) HandleState(w http.ResponseWriter, r *http.Request) {
	s.runCommand(w, r, "dump")
}

func (s *Server) runCommand(w http.ResponseWriter, r *http.Request, name string) {
	log := requestLogger(r).With("command", name)
	start := time.Now()

	out, err := s.runner.Run(r.Context(), s.target, name)
	if err != nil {
		status := statusFor(err)
		// Unknown names are not recorded to keep label cardinality bounded.
		if !errors.Is(err, client.ErrUnknownCommand) {
			s.metrics.observe(name, status, time.Since(start).Seconds())
		}
		log.Warn("Command failed", "status", status, "error", err)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	s.metrics.observe(name, http.StatusOK, time.Since(start).Seconds())
	log.Info("Command complete", "duration", time.Since(start))

	if out != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(out)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{Command: name, Status: "ok"})
}

func (s *Server) HandleVolume(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)

	var req volumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid body: %v", err)})
		return
	}
	if req.Gain == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "gain is required"})
		return
	}
	if err := client.ValidateGain(*req.Gain); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	start := time.Now()
	if err := s.runner.SetVolume(r.Context(), s.target, *req.Gain); err != nil {
		status := statusFor(err)
		s.metrics.observe("volume", status, time.Since(start).Seconds())
		log.Warn("Volume change failed", "gain", *req.Gain, "error", err)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	s.metrics.observe("volume", http.StatusOK, time.Since(start).Seconds())
	log.Info("Volume set", "gain", *req.Gain)
	writeJSON(w, http.StatusOK, okResponse{Command: "volume", Status: "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, client.ErrUnknownCommand):
		return http.StatusNotFound
	case errors.Is(err, client.ErrPresetNotConfigured), errors.Is(err, client.ErrInvalidGain):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
