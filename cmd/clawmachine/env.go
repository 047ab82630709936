package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required,notEmpty"`
	DevGuild     string `env:"DEV_GUILD_ID"`
	DBPath       string `env:"DB_PATH,required,notEmpty"`
	ShardCount   int    `env:"SHARD_COUNT" envDefault:"1"`
	ShardId      int    `env:"SHARD_ID" envDefault:"0"`

	PrizesJson string `env:"PRIZES_JSON"`
	Resolver   string `env:"RESOLVER" envDefault:"zone"`
	HistoryCap int    `env:"HISTORY_CAP" envDefault:"20"`

	CooldownPlayMin int `env:"COOLDOWN_PLAY_MIN" envDefault:"30"`
	CooldownPlayMax int `env:"COOLDOWN_PLAY_MAX" envDefault:"45"`

	AnnouncerAPIKey  string        `env:"ANNOUNCER_API_KEY"`
	AnnouncerModel   string        `env:"ANNOUNCER_MODEL"`
	AnnouncerBaseURL string        `env:"ANNOUNCER_BASE_URL"`
	AnnouncerTimeout time.Duration `env:"ANNOUNCER_TIMEOUT" envDefault:"3s"`
}

func LoadConfig() (*Config, error) {
	// .env is optional; the process environment always wins
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.Resolver {
	case "zone", "random":
	default:
		return nil, fmt.Errorf("RESOLVER must be zone or random, got %q", cfg.Resolver)
	}
	if cfg.CooldownPlayMax < cfg.CooldownPlayMin {
		return nil, fmt.Errorf("COOLDOWN_PLAY_MAX (%d) is below COOLDOWN_PLAY_MIN (%d)", cfg.CooldownPlayMax, cfg.CooldownPlayMin)
	}

	return &cfg, nil
}
