package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr        string        `env:"ADDR" envDefault:":8080"`
	DatabaseURL string        `env:"DATABASE_URL" envDefault:""`
	CatalogPath string        `env:"CATALOG_PATH" envDefault:"data/players.json"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL" envDefault:"24h"`
}

func Load() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}
