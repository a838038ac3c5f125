package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// MessageProcessor is the conversation relay as seen by the HTTP surface.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, chatID int64, username, text string) string
}

// UpdateHandler consumes raw platform updates delivered over the webhook.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// WebhookRegistrar (re-)registers the webhook against the bot platform.
type WebhookRegistrar interface {
	Register(ctx context.Context) error
}

type SendRequest struct {
	ChatID   int64  `json:"chat_id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type SendResponse struct {
	Response string `json:"response"`
}

type Server struct {
	relay      MessageProcessor
	updates    UpdateHandler
	webhooks   WebhookRegistrar
	httpServer *http.Server
}

func New(port int, relay MessageProcessor, updates UpdateHandler, webhooks WebhookRegistrar) *Server {
	s := &Server{relay: relay, updates: updates, webhooks: webhooks}

	mux := http.NewServeMux()
	mux.HandleFunc("/send", s.handleSend)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/update", s.handleUpdate)
	mux.HandleFunc("/webhook", s.handleWebhook)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	log.Printf("server: listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp := s.relay.ProcessMessage(r.Context(), req.ChatID, req.Username, req.Message)
	writeJSON(w, http.StatusOK, SendResponse{Response: resp})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpdate receives webhook deliveries. Only an undecodable body is a
// client error; everything decodable is acknowledged so Telegram does not
// redeliver it.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	reqID := uuid.NewString()
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Printf("server: update %s: undecodable payload: %v", reqID, err)
		writeError(w, http.StatusBadRequest, "invalid update payload")
		return
	}
	log.Printf("server: update %s received (update_id=%d)", reqID, update.UpdateID)
	s.updates.HandleUpdate(r.Context(), update)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.webhooks == nil {
		writeError(w, http.StatusServiceUnavailable, "webhook management is not configured")
		return
	}
	if err := s.webhooks.Register(r.Context()); err != nil {
		log.Printf("server: register webhook: %v", err)
		writeError(w, http.StatusBadGateway, "failed to register webhook")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
