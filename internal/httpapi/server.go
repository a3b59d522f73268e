// Package httpapi expone las mismas operaciones del daemon sobre HTTP, para
// integraciones que no pueden hablar por el unix socket.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/elsanchez/smart-publish/internal/daemon"
)

// Server es el front-end HTTP del daemon
type Server struct {
	handlers *daemon.Handlers
	srv      *http.Server
}

// NewServer crea el servidor HTTP sobre los mismos handlers del socket
func NewServer(addr string, handlers *daemon.Handlers) *Server {
	s := &Server{handlers: handlers}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/ping", s.handlePing)
	r.Post("/postVideo", s.handlePost)
	r.Get("/accounts", s.handleAccounts)
	r.Post("/validate", s.handleValidate)
	r.Post("/login", s.handleLogin)
	r.Post("/import", s.handleImport)
	r.Get("/batch/{batchID}", s.handleBatchStatus)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// Start arranca el listener HTTP
func (s *Server) Start() error {
	log.Printf("HTTP API listening on %s", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop apaga el servidor con gracia
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, daemon.Response{Success: true, Data: json.RawMessage(`{"message":"pong"}`)})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeResponse(w, s.handlers.HandlePost(r.Context(), payload))
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	payload, _ := json.Marshal(map[string]string{
		"platform": r.URL.Query().Get("platform"),
	})
	writeResponse(w, s.handlers.HandleAccounts(r.Context(), payload))
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeResponse(w, s.handlers.HandleValidate(r.Context(), payload))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeResponse(w, s.handlers.HandleLogin(r.Context(), payload))
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeResponse(w, s.handlers.HandleImport(r.Context(), payload))
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	payload, _ := json.Marshal(map[string]string{
		"batch_id": chi.URLParam(r, "batchID"),
	})
	writeResponse(w, s.handlers.HandleStatus(r.Context(), payload))
}

func writeResponse(w http.ResponseWriter, resp daemon.Response) {
	w.Header().Set("Content-Type", "application/json")
	if !resp.Success {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
