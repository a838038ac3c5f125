package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mistral-chatter/internal/config"
	"mistral-chatter/internal/llm"
	"mistral-chatter/internal/relay"
	"mistral-chatter/internal/scheduler"
	"mistral-chatter/internal/server"
	"mistral-chatter/internal/storage"
	"mistral-chatter/internal/telegram"
)

const webhookRefreshSpec = "@hourly"

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	if missing := cfg.MissingVars(); len(missing) > 0 {
		log.Fatalf("missing environment variables: %s", strings.Join(missing, ", "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := newStorageAdapter(ctx, cfg)
	mistral := llm.NewMistral(cfg.MistralAPIKey, cfg.MistralBaseURL, cfg.MistralModel)
	rly := relay.New(store, mistral, cfg.HistoryLimit)

	bot, err := telegram.New(cfg.TelegramBotToken, rly, store)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	var registrar server.WebhookRegistrar
	var webhooks *telegram.WebhookManager
	if cfg.PublicBaseURL != "" {
		webhooks = bot.WebhookManager(cfg.PublicBaseURL)
		registrar = webhooks
	}

	srv := server.New(cfg.Port, rly, bot, registrar)

	var sched *scheduler.Scheduler
	switch cfg.BotMode {
	case config.ModeWebhook:
		if err := webhooks.Register(ctx); err != nil {
			log.Fatalf("failed to register webhook: %v", err)
		}
		sched = scheduler.New()
		sched.SetJob(webhooks.EnsureRegistered)
		if err := sched.Start(webhookRefreshSpec); err != nil {
			log.Printf("failed to start webhook refresh job: %v", err)
		}
	default:
		bot.Start(ctx)
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if sched != nil {
		sched.Stop()
	}
	if cfg.BotMode != config.ModeWebhook {
		bot.Stop()
	}
}

func newStorageAdapter(ctx context.Context, cfg *config.Config) storage.Adapter {
	switch cfg.StorageBackend {
	case config.BackendDynamo:
		adapter, err := storage.NewDynamo(ctx, cfg.AWSRegion, cfg.DynamoTable)
		if err != nil {
			log.Fatalf("failed to init dynamo storage: %v", err)
		}
		log.Printf("using dynamo storage (table %s)", cfg.DynamoTable)
		return adapter
	case config.BackendSQLite:
		adapter, err := storage.NewSQLite(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("failed to init sqlite storage: %v", err)
		}
		log.Printf("using sqlite storage at %s", cfg.SQLitePath)
		return adapter
	case config.BackendMemory:
		log.Printf("using in-memory storage")
		return storage.NewMemory()
	default:
		log.Printf("unknown storage backend %q, falling back to in-memory", cfg.StorageBackend)
		return storage.NewMemory()
	}
}
