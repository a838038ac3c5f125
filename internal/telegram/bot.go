package telegram

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mistral-chatter/internal/relay"
	"mistral-chatter/internal/storage"
)

const (
	feedbackPositive = "feedback_positive"
	feedbackNegative = "feedback_negative"

	stopTimeout = 2 * time.Second
)

const (
	welcomeText = "Hello! I'm your AI assistant powered by Mistral AI. How can I help you today?\n\n" +
		"Use /chat to start a conversation with me\n" +
		"Use /reset to clear our conversation history\n" +
		"Use /help to see all available commands"
	chatModeText = "Chat mode enabled! You can now talk to me directly. What would you like to discuss?"
	helpText = "Available commands:\n\n" +
		"/start - Start the conversation and show the menu\n" +
		"/chat - Start chatting with the AI\n" +
		"/reset - Reset your conversation history\n" +
		"/help - Show this help message"
	resetDoneText      = "Your conversation history has been reset."
	resetFailedText    = "Sorry, I couldn't clear your conversation history. Please try again."
	feedbackThanksText = "Thanks for the positive feedback! 😊"
	feedbackSorryText  = "I'm sorry my answer wasn't helpful. How can I do better?"
)

type updateKind int

const (
	updateIgnored updateKind = iota
	updateCommand
	updateFreeText
	updateCallback
)

func classifyUpdate(update tgbotapi.Update) updateKind {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		return updateCommand
	case update.Message != nil && strings.TrimSpace(update.Message.Text) != "":
		return updateFreeText
	case update.CallbackQuery != nil:
		return updateCallback
	default:
		return updateIgnored
	}
}

type Bot struct {
	api   *tgbotapi.BotAPI
	relay *relay.Relay
	store storage.Adapter

	// chatMode is display-only state: free text is relayed regardless.
	modeMu   sync.Mutex
	chatMode map[int64]bool

	done chan struct{}
}

func New(botToken string, r *relay.Relay, store storage.Adapter) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:      api,
		relay:    r,
		store:    store,
		chatMode: make(map[int64]bool),
		done:     make(chan struct{}),
	}, nil
}

// Start launches the long-polling loop in the background. Updates stop being
// consumed once ctx is cancelled or Stop is called.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	go func() {
		defer close(b.done)
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				b.HandleUpdate(ctx, update)
			}
		}
	}()
	log.Printf("telegram: bot started in polling mode")
}

// Stop halts polling and waits briefly for the update loop; shutdown is not
// held hostage by an in-flight update.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	select {
	case <-b.done:
	case <-time.After(stopTimeout):
		log.Printf("telegram: timed out waiting for update loop, continuing shutdown")
	}
}

// HandleUpdate routes one update. It serves both the polling loop and the
// webhook endpoint; webhook replies are delivered as explicit sends since the
// webhook response body is not the platform reply.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch classifyUpdate(update) {
	case updateCommand:
		b.handleCommand(ctx, update.Message)
	case updateFreeText:
		b.handleText(ctx, update.Message)
	case updateCallback:
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.sendText(chatID, welcomeText)
	case "chat":
		b.setChatMode(chatID, true)
		b.sendText(chatID, chatModeText)
	case "reset":
		if err := b.store.ResetConversation(ctx, chatID); err != nil {
			log.Printf("telegram: reset conversation for chat %d: %v", chatID, err)
			b.sendText(chatID, resetFailedText)
			return
		}
		b.sendText(chatID, resetDoneText)
	case "help":
		b.sendText(chatID, helpText)
	default:
		// unrecognized commands are silently ignored
	}
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	username := "user"
	if msg.From != nil && msg.From.UserName != "" {
		username = msg.From.UserName
	}

	if !b.inChatMode(chatID) {
		b.setChatMode(chatID, true)
		log.Printf("telegram: chat mode auto-enabled for chat %d", chatID)
	}

	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := b.api.Request(typing); err != nil {
		log.Printf("telegram: send typing action: %v", err)
	}

	reply := b.relay.ProcessMessage(ctx, chatID, username, msg.Text)

	out := tgbotapi.NewMessage(chatID, reply)
	out.ReplyMarkup = feedbackKeyboard()
	if _, err := b.api.Send(out); err != nil {
		log.Printf("telegram: send reply to chat %d: %v", chatID, err)
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("telegram: answer callback: %v", err)
	}

	var reply string
	switch cb.Data {
	case feedbackPositive:
		reply = feedbackThanksText
	case feedbackNegative:
		reply = feedbackSorryText
	default:
		return
	}

	if cb.Message == nil {
		return
	}
	clearMarkup := tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, err := b.api.Request(clearMarkup); err != nil {
		log.Printf("telegram: clear feedback keyboard: %v", err)
	}
	b.sendText(cb.Message.Chat.ID, reply)
}

func feedbackKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👍", feedbackPositive),
			tgbotapi.NewInlineKeyboardButtonData("👎", feedbackNegative),
		),
	)
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("telegram: send message to chat %d: %v", chatID, err)
	}
}

func (b *Bot) setChatMode(chatID int64, on bool) {
	b.modeMu.Lock()
	defer b.modeMu.Unlock()
	b.chatMode[chatID] = on
}

func (b *Bot) inChatMode(chatID int64) bool {
	b.modeMu.Lock()
	defer b.modeMu.Unlock()
	return b.chatMode[chatID]
}
