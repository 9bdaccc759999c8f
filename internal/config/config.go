// Package config loads the environment-driven configuration for the
// disco-snails process.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds every knob the process reads from the environment.
type Config struct {
	DiscordBotToken   string        `env:"DISCORD_BOT_TOKEN"`
	ForumChannelID    string        `env:"FORUM_CHANNEL_ID" envDefault:"1084972377529667584"`
	DiscordAPIBaseURL string        `env:"DISCORD_API_BASE_URL" envDefault:""`
	Lookback          int           `env:"LOOKBACK" envDefault:"2"`
	MaxMessages       int           `env:"MAX_MESSAGES" envDefault:"0"`
	SyncInterval      time.Duration `env:"SYNC_INTERVAL" envDefault:"24h"`

	Summarizer    string `env:"SUMMARIZER" envDefault:"openai"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-5-mini"`
	GoogleAPIKey  string `env:"GOOGLE_API_KEY"`
	GoogleModel   string `env:"GOOGLE_MODEL" envDefault:"gemini-2.5-flash"`

	DatabaseDSN string `env:"SNAILS_DB" envDefault:"sqlite://snails.db"`
	ListenAddr  string `env:"SNAILS_ADDR" envDefault:":3000"`
	WebAPIKey   string `env:"WEB_API_KEY"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Verbose  bool   `env:"DISCORD_VERBOSE_LOGS" envDefault:"false"`
}

// Load reads configuration from the environment, honoring a .env file
// when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if strings.TrimSpace(cfg.DiscordBotToken) == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if strings.TrimSpace(cfg.ForumChannelID) == "" {
		return nil, fmt.Errorf("FORUM_CHANNEL_ID is required")
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 2
	}
	if cfg.MaxMessages < 0 {
		cfg.MaxMessages = 0
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = 24 * time.Hour
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Summarizer)) {
	case "openai":
		cfg.Summarizer = "openai"
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when SUMMARIZER is openai")
		}
	case "gemini":
		cfg.Summarizer = "gemini"
		if strings.TrimSpace(cfg.GoogleAPIKey) == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY is required when SUMMARIZER is gemini")
		}
	default:
		return nil, fmt.Errorf("unsupported SUMMARIZER: %s", cfg.Summarizer)
	}

	return cfg, nil
}
