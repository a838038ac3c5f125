package telegram

import (
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func commandMessage(text string) *tgbotapi.Message {
	cmdLen := len(text)
	if i := strings.IndexAny(text, " @"); i > 0 {
		cmdLen = i
	}
	return &tgbotapi.Message{
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: cmdLen},
		},
		Chat: &tgbotapi.Chat{ID: 1},
	}
}

func TestClassifyUpdate(t *testing.T) {
	cases := []struct {
		name   string
		update tgbotapi.Update
		want   updateKind
	}{
		{
			name:   "command",
			update: tgbotapi.Update{Message: commandMessage("/start")},
			want:   updateCommand,
		},
		{
			name: "free text",
			update: tgbotapi.Update{Message: &tgbotapi.Message{
				Text: "hello there",
				Chat: &tgbotapi.Chat{ID: 1},
			}},
			want: updateFreeText,
		},
		{
			name: "blank text ignored",
			update: tgbotapi.Update{Message: &tgbotapi.Message{
				Text: "   ",
				Chat: &tgbotapi.Chat{ID: 1},
			}},
			want: updateIgnored,
		},
		{
			name:   "callback",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{Data: feedbackPositive}},
			want:   updateCallback,
		},
		{
			name:   "empty update",
			update: tgbotapi.Update{},
			want:   updateIgnored,
		},
	}
	for _, tc := range cases {
		if got := classifyUpdate(tc.update); got != tc.want {
			t.Errorf("%s: want %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestCommandParsing(t *testing.T) {
	cases := map[string]string{
		"/start":           "start",
		"/chat":            "chat",
		"/reset":           "reset",
		"/help":            "help",
		"/unknown":         "unknown",
		"/start@some_bot":  "start",
		"/reset extra arg": "reset",
	}
	for text, want := range cases {
		msg := commandMessage(text)
		if !msg.IsCommand() {
			t.Errorf("%q: expected IsCommand", text)
			continue
		}
		if got := msg.Command(); got != want {
			t.Errorf("%q: want command %q, got %q", text, want, got)
		}
	}
}

func TestFeedbackKeyboard(t *testing.T) {
	kb := feedbackKeyboard()
	if len(kb.InlineKeyboard) != 1 || len(kb.InlineKeyboard[0]) != 2 {
		t.Fatalf("want one row of two buttons, got %+v", kb.InlineKeyboard)
	}
	row := kb.InlineKeyboard[0]
	if row[0].CallbackData == nil || *row[0].CallbackData != feedbackPositive {
		t.Errorf("first button: want %q callback data", feedbackPositive)
	}
	if row[1].CallbackData == nil || *row[1].CallbackData != feedbackNegative {
		t.Errorf("second button: want %q callback data", feedbackNegative)
	}
}

func TestChatModeTracking(t *testing.T) {
	b := &Bot{chatMode: make(map[int64]bool)}
	if b.inChatMode(5) {
		t.Fatal("chat mode should start off")
	}
	b.setChatMode(5, true)
	if !b.inChatMode(5) {
		t.Fatal("chat mode should be on after toggle")
	}
	if b.inChatMode(6) {
		t.Fatal("chat mode must be tracked per chat")
	}
}

func TestWebhookURL(t *testing.T) {
	w := &WebhookManager{baseURL: "https://example.com/"}
	if got := w.URL(); got != "https://example.com/update" {
		t.Errorf("want https://example.com/update, got %q", got)
	}
	w = &WebhookManager{baseURL: "https://example.com"}
	if got := w.URL(); got != "https://example.com/update" {
		t.Errorf("want https://example.com/update, got %q", got)
	}
}
