// Package devserver is a local stand-in for the sales assistant backend. It
// serves the same HTTP API as the production service, stores conversations
// in sqlite and answers through a pluggable Responder.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"salesassist/api"
	"salesassist/storage"
)

const (
	ReadTimeout     = 15 * time.Second
	WriteTimeout    = 60 * time.Second
	IdleTimeout     = 60 * time.Second
	ShutdownTimeout = 5 * time.Second
)

const (
	msgRequired       = "Message is required"
	msgMissing        = "Conversation missing"
	msgRateLimited    = "Rate limit reached. Please wait a moment and try again."
	msgConnectionLost = "Connection issue. Please try again."
)

type Server struct {
	store     *storage.ConversationStorage
	responder Responder
	logger    *slog.Logger
	now       func() time.Time

	// mu serializes the read-modify-write cycle of chat and rerun.
	mu sync.Mutex
}

func New(store *storage.ConversationStorage, responder Responder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:     store,
		responder: responder,
		logger:    logger,
		now:       time.Now,
	}
}

// Handler returns the API routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return LoggingMiddleware(s.logger)(mux)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/conversations", s.handleList)
	mux.HandleFunc("GET /api/conversations/{id}", s.handleGet)
	mux.HandleFunc("DELETE /api/conversations/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat/rerun", s.handleRerun)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev backend listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down dev backend")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

type chatFailure struct {
	Error          string `json:"error"`
	IsCritical     bool   `json:"is_critical"`
	ConversationID api.ID `json:"conversation_id,omitempty"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

type rerunResponse struct {
	Success         bool         `json:"success"`
	Message         string       `json:"message"`
	FunctionResults []api.Result `json:"function_results,omitempty"`
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.internalError(w, "list conversations", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": list})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	conv, err := s.store.Load(r.Context(), api.ID(r.PathValue("id")))
	if err != nil {
		s.internalError(w, "load conversation", err)
		return
	}
	if conv == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: msgMissing})
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted, err := s.store.Delete(r.Context(), api.ID(r.PathValue("id")))
	if err != nil {
		s.internalError(w, "delete conversation", err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, errorBody{Error: msgMissing})
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Success: true})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatFailure{Error: "Invalid request body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, chatFailure{Error: msgRequired})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := r.Context()
	id := req.ConversationID
	var history []api.Message

	if id.IsZero() {
		created, err := s.store.Create(ctx, storage.GenerateTitle(req.Message), s.now())
		if err != nil {
			s.internalError(w, "create conversation", err)
			return
		}
		id = created
		s.logger.Info("conversation created", "conversation_id", id)
	} else {
		conv, err := s.store.Load(ctx, id)
		if err != nil {
			s.internalError(w, "load conversation", err)
			return
		}
		if conv == nil {
			writeJSON(w, http.StatusNotFound, chatFailure{Error: msgMissing})
			return
		}
		history = conv.Messages
	}

	if err := s.store.Append(ctx, id, api.Message{Role: "user", Content: req.Message}, s.now()); err != nil {
		s.internalError(w, "store message", err)
		return
	}

	reply, err := s.responder.Respond(ctx, history, req.Message)
	if err != nil {
		s.fail(ctx, w, id, err, true)
		return
	}

	if err := s.store.Append(ctx, id, api.Message{
		Role:            "assistant",
		Content:         reply.Message,
		FunctionResults: reply.Results,
	}, s.now()); err != nil {
		s.internalError(w, "store reply", err)
		return
	}

	writeJSON(w, http.StatusOK, api.ChatResponse{
		ConversationID:  id,
		Message:         reply.Message,
		FunctionResults: reply.Results,
	})
}

func (s *Server) handleRerun(w http.ResponseWriter, r *http.Request) {
	var req api.RerunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatFailure{Error: "Invalid request body"})
		return
	}
	if req.NewMessage == "" {
		writeJSON(w, http.StatusBadRequest, chatFailure{Error: msgRequired})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := r.Context()
	conv, err := s.store.Load(ctx, req.ConversationID)
	if err != nil {
		s.internalError(w, "load conversation", err)
		return
	}
	if conv == nil {
		writeJSON(w, http.StatusNotFound, chatFailure{Error: msgMissing})
		return
	}
	if req.MessageIndex < 0 || req.MessageIndex >= len(conv.Messages) || conv.Messages[req.MessageIndex].Role != "user" {
		writeJSON(w, http.StatusBadRequest, chatFailure{Error: "Message index does not refer to a user message"})
		return
	}

	if err := s.store.Rewrite(ctx, conv.ID, req.MessageIndex, req.NewMessage); err != nil {
		s.internalError(w, "rewrite conversation", err)
		return
	}
	s.logger.Info("conversation rewritten", "conversation_id", conv.ID, "message_index", req.MessageIndex)

	reply, err := s.responder.Respond(ctx, conv.Messages[:req.MessageIndex], req.NewMessage)
	if err != nil {
		s.fail(ctx, w, conv.ID, err, false)
		return
	}

	if err := s.store.Append(ctx, conv.ID, api.Message{
		Role:            "assistant",
		Content:         reply.Message,
		FunctionResults: reply.Results,
	}, s.now()); err != nil {
		s.internalError(w, "store reply", err)
		return
	}

	writeJSON(w, http.StatusOK, rerunResponse{
		Success:         true,
		Message:         reply.Message,
		FunctionResults: reply.Results,
	})
}

// fail records a responder failure as an error message in the conversation
// and reports it to the client.
func (s *Server) fail(ctx context.Context, w http.ResponseWriter, id api.ID, err error, withID bool) {
	message, critical := classifyFailure(err)
	s.logger.Warn("responder failed", "conversation_id", id, "error", err, "critical", critical)

	if appendErr := s.store.Append(ctx, id, api.Message{
		Role:       "error",
		Content:    message,
		IsCritical: critical,
	}, s.now()); appendErr != nil {
		s.logger.Error("store error message failed", "error", appendErr)
	}

	body := chatFailure{Error: message, IsCritical: critical}
	if withID {
		body.ConversationID = id
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

// classifyFailure turns a responder error into the message shown to the
// user. Throttling and connectivity problems are recoverable, anything else
// is critical.
func classifyFailure(err error) (string, bool) {
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "rate"), strings.Contains(lower, "quota"), strings.Contains(lower, "limit"):
		return msgRateLimited, false
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "connection"):
		return msgConnectionLost, false
	}
	return err.Error(), true
}
