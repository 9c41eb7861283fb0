package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PINOT_CONFIG is set
//  3. env (prefix PINOT_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PINOT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Env keys like PINOT_STORE_BACKEND map to store_backend; underscores
	// are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("PINOT_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "pinot_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.StoreBackend != BackendMemory && cfg.StoreBackend != BackendMongo:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, cfg.StoreBackend)
	case cfg.StoreBackend == BackendMongo && cfg.MongoURI == "":
		return fmt.Errorf("%w: mongo_uri required for the mongo backend", ErrInvalidConfig)
	case cfg.FastBonusMinutes <= 0 || cfg.SlowBonusMinutes <= cfg.FastBonusMinutes:
		return fmt.Errorf("%w: bonus windows must satisfy 0 < fast < slow", ErrInvalidConfig)
	case cfg.TimerTickMS <= 0:
		return fmt.Errorf("%w: timer_tick_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
