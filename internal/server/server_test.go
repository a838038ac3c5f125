package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type echoProcessor struct {
	gotChatID   int64
	gotUsername string
}

func (e *echoProcessor) ProcessMessage(_ context.Context, chatID int64, username, text string) string {
	e.gotChatID = chatID
	e.gotUsername = username
	return "echo: " + text
}

type recordingHandler struct {
	updates []tgbotapi.Update
}

func (h *recordingHandler) HandleUpdate(_ context.Context, update tgbotapi.Update) {
	h.updates = append(h.updates, update)
}

type stubRegistrar struct {
	err    error
	called bool
}

func (r *stubRegistrar) Register(context.Context) error {
	r.called = true
	return r.err
}

func newTestServer(proc MessageProcessor, updates UpdateHandler, webhooks WebhookRegistrar) *Server {
	return New(0, proc, updates, webhooks)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleSend(t *testing.T) {
	proc := &echoProcessor{}
	s := newTestServer(proc, &recordingHandler{}, nil)

	rec := do(t, s, http.MethodPost, "/send", `{"chat_id": 42, "username": "bob", "message": "Hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp SendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response != "echo: Hi" {
		t.Errorf("want %q, got %q", "echo: Hi", resp.Response)
	}
	if proc.gotChatID != 42 || proc.gotUsername != "bob" {
		t.Errorf("processor got chat_id=%d username=%q", proc.gotChatID, proc.gotUsername)
	}
}

func TestHandleSend_MalformedBody(t *testing.T) {
	s := newTestServer(&echoProcessor{}, &recordingHandler{}, nil)
	rec := do(t, s, http.MethodPost, "/send", `{"chat_id": not-json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

func TestHandleSend_MethodNotAllowed(t *testing.T) {
	s := newTestServer(&echoProcessor{}, &recordingHandler{}, nil)
	rec := do(t, s, http.MethodGet, "/send", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("want 405, got %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&echoProcessor{}, &recordingHandler{}, nil)
	rec := do(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("want status ok, got %+v", resp)
	}
}

func TestHandleUpdate_DispatchesToBot(t *testing.T) {
	handler := &recordingHandler{}
	s := newTestServer(&echoProcessor{}, handler, nil)

	rec := do(t, s, http.MethodPost, "/update",
		`{"update_id": 7, "message": {"message_id": 1, "text": "hello", "chat": {"id": 42}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(handler.updates) != 1 {
		t.Fatalf("want 1 dispatched update, got %d", len(handler.updates))
	}
	if handler.updates[0].UpdateID != 7 {
		t.Errorf("want update_id 7, got %d", handler.updates[0].UpdateID)
	}
}

func TestHandleUpdate_MalformedPayload(t *testing.T) {
	handler := &recordingHandler{}
	s := newTestServer(&echoProcessor{}, handler, nil)

	rec := do(t, s, http.MethodPost, "/update", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
	if len(handler.updates) != 0 {
		t.Errorf("malformed payload must not be dispatched")
	}
}

func TestHandleWebhook(t *testing.T) {
	reg := &stubRegistrar{}
	s := newTestServer(&echoProcessor{}, &recordingHandler{}, reg)

	rec := do(t, s, http.MethodPost, "/webhook", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if !reg.called {
		t.Error("registrar was not invoked")
	}
}

func TestHandleWebhook_RegistrationFails(t *testing.T) {
	reg := &stubRegistrar{err: errors.New("telegram unreachable")}
	s := newTestServer(&echoProcessor{}, &recordingHandler{}, reg)

	rec := do(t, s, http.MethodPost, "/webhook", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("want 502, got %d", rec.Code)
	}
}

func TestHandleWebhook_NotConfigured(t *testing.T) {
	s := newTestServer(&echoProcessor{}, &recordingHandler{}, nil)
	rec := do(t, s, http.MethodPost, "/webhook", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", rec.Code)
	}
}
