package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type StorageBackend string

const (
	BackendMemory StorageBackend = "memory"
	BackendSQLite StorageBackend = "sqlite"
	BackendDynamo StorageBackend = "dynamo"
)

type BotMode string

const (
	ModePolling BotMode = "polling"
	ModeWebhook BotMode = "webhook"
)

type Config struct {
	Port             int     `env:"PORT" envDefault:"3000"`
	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN,required"`
	BotMode          BotMode `env:"BOT_MODE" envDefault:"polling"`

	// Mistral settings
	MistralAPIKey  string `env:"MISTRAL_API_KEY"`
	MistralBaseURL string `env:"MISTRAL_BASE_URL" envDefault:"https://api.mistral.ai/v1"`
	MistralModel   string `env:"MISTRAL_MODEL" envDefault:"mistral-medium"`

	// Storage
	StorageBackend StorageBackend `env:"STORAGE_BACKEND" envDefault:"memory"`
	SQLitePath     string         `env:"SQLITE_PATH" envDefault:"data/conversations.sqlite"`
	AWSRegion      string         `env:"AWS_REGION" envDefault:"eu-west-3"`
	DynamoTable    string         `env:"DYNAMO_TABLE"`

	// Webhook delivery
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	// Conversation context
	HistoryLimit int `env:"HISTORY_LIMIT" envDefault:"5"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

// MissingVars reports required variables that are empty for the selected
// deployment, so startup can fail with one clear message.
func (c *Config) MissingVars() []string {
	var missing []string
	if c.MistralAPIKey == "" {
		missing = append(missing, "MISTRAL_API_KEY")
	}
	if c.StorageBackend == BackendDynamo && c.DynamoTable == "" {
		missing = append(missing, "DYNAMO_TABLE")
	}
	if c.BotMode == ModeWebhook && c.PublicBaseURL == "" {
		missing = append(missing, "PUBLIC_BASE_URL")
	}
	return missing
}
