// Package server exposes the orchestrator over HTTP.
//
// Information Hiding:
// - Route table and request/response wire shapes hidden behind NewServer
// - Error-to-status mapping encapsulated (a conflicting invocation is a 409,
//   never a 500)
// - Graceful shutdown handled by Run
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/carebridge/carebridge/chat"
)

// Server wraps the orchestrator with an HTTP API.
type Server struct {
	orchestrator *chat.Orchestrator
	http         *http.Server
	logger       *zap.Logger
}

// messageRequest is the POST /api/messages payload. An empty sessionId starts
// a new conversation.
type messageRequest struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
	Reply string `json:"reply,omitempty"`
}

// NewServer builds the HTTP server with its routes registered.
func NewServer(addr string, orchestrator *chat.Orchestrator, logger *zap.Logger) *Server {
	s := &Server{
		orchestrator: orchestrator,
		logger:       logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/api/messages", s.handleMessage).Methods("POST")
	router.HandleFunc("/api/sessions/{id}/messages", s.handleHistory).Methods("GET")
	router.HandleFunc("/api/sessions/{id}", s.handleClear).Methods("DELETE")

	s.http = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	return s
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down http server")
		return s.http.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
		return
	}

	turn, err := s.orchestrator.HandleMessage(r.Context(), req.SessionID, req.Text)
	if err != nil {
		var conflict *chat.ConflictError
		if errors.As(err, &conflict) {
			writeJSON(w, http.StatusConflict, errorResponse{
				Error: "conflicting invocation",
				Reply: conflict.UserMessage(),
			})
			return
		}
		s.logger.Error("message handling failed",
			zap.String("session", req.SessionID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	messages, err := s.orchestrator.History(r.Context(), id)
	if err != nil {
		s.logger.Error("history lookup failed", zap.String("session", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": id,
		"messages":  messages,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.orchestrator.ClearSession(r.Context(), id); err != nil {
		s.logger.Error("session clear failed", zap.String("session", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
