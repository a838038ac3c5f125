package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	webhookEndpoint  = "/update"
	registerAttempts = 3
	registerBackoff  = 2 * time.Second
)

// WebhookManager registers and removes the bot's webhook against the
// Telegram API. Registration is idempotent: setting the same URL twice is a
// no-op on Telegram's side.
type WebhookManager struct {
	api     *tgbotapi.BotAPI
	baseURL string
}

func NewWebhookManager(botToken, baseURL string) (*WebhookManager, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("init bot api: %w", err)
	}
	return &WebhookManager{api: api, baseURL: baseURL}, nil
}

// WebhookManager builds a manager reusing the bot's API client.
func (b *Bot) WebhookManager(baseURL string) *WebhookManager {
	return &WebhookManager{api: b.api, baseURL: baseURL}
}

// URL is the full public update endpoint derived from the configured base.
func (w *WebhookManager) URL() string {
	return strings.TrimRight(w.baseURL, "/") + webhookEndpoint
}

func (w *WebhookManager) Register(ctx context.Context) error {
	if w.baseURL == "" {
		return fmt.Errorf("public base URL is not configured")
	}
	wh, err := tgbotapi.NewWebhook(w.URL())
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= registerAttempts; attempt++ {
		if _, err := w.api.Request(wh); err != nil {
			lastErr = err
			log.Printf("telegram: set webhook attempt %d/%d: %v", attempt, registerAttempts, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(registerBackoff):
			}
			continue
		}
		log.Printf("telegram: webhook registered at %s", w.URL())
		return nil
	}
	return fmt.Errorf("register webhook: %w", lastErr)
}

// EnsureRegistered re-asserts the webhook only when the currently registered
// URL differs from the desired one.
func (w *WebhookManager) EnsureRegistered(ctx context.Context) error {
	info, err := w.api.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("get webhook info: %w", err)
	}
	if info.URL == w.URL() {
		return nil
	}
	return w.Register(ctx)
}

func (w *WebhookManager) Delete(_ context.Context) error {
	info, err := w.api.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("get webhook info: %w", err)
	}
	if info.URL == "" {
		log.Printf("telegram: no active webhook to delete")
		return nil
	}
	if _, err := w.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	log.Printf("telegram: webhook deleted (was %s)", info.URL)
	return nil
}

func (w *WebhookManager) Info() (tgbotapi.WebhookInfo, error) {
	return w.api.GetWebhookInfo()
}
