package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskctx/pkg/log"
)

const (
	StoreDriverFile   = "file"
	StoreDriverBadger = "badger"
)

type MemoryConfig struct {
	MaxHistoryMessages int     `env:"MEMORY_MAX_HISTORY" envDefault:"8"`
	MaxStoredVectors   int     `env:"MEMORY_VECTOR_LIMIT" envDefault:"40"`
	VectorSimilarityK  int     `env:"MEMORY_VECTOR_K" envDefault:"3"`
	SummaryInterval    int     `env:"MEMORY_SUMMARY_INTERVAL" envDefault:"6"`
	MinFactLength      int     `env:"MEMORY_MIN_FACT_LENGTH" envDefault:"16"`
	MinSimilarity      float64 `env:"MEMORY_MIN_SIMILARITY" envDefault:"0"`
	SummaryTokenBudget int     `env:"MEMORY_SUMMARY_TOKEN_BUDGET" envDefault:"2000"`
	CacheSize          int     `env:"MEMORY_CACHE_SIZE" envDefault:"256"`

	StoreDir    string `env:"MEMORY_STORE_DIR"`
	StoreDriver string `env:"MEMORY_STORE_DRIVER" envDefault:"file"`

	ProviderTimeout time.Duration `env:"MEMORY_PROVIDER_TIMEOUT" envDefault:"30s"`
}

func ParseMemoryConfig() (*MemoryConfig, error) {
	c := &MemoryConfig{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse memory config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func NewMemoryConfig(ctx context.Context) *MemoryConfig {
	c, err := ParseMemoryConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Memory config")
	}
	return c
}

func (c MemoryConfig) Validate() error {
	switch {
	case c.MaxHistoryMessages < 2:
		return fmt.Errorf("MEMORY_MAX_HISTORY must be at least 2, got %d", c.MaxHistoryMessages)
	case c.MaxStoredVectors < 1:
		return fmt.Errorf("MEMORY_VECTOR_LIMIT must be positive, got %d", c.MaxStoredVectors)
	case c.VectorSimilarityK < 1:
		return fmt.Errorf("MEMORY_VECTOR_K must be positive, got %d", c.VectorSimilarityK)
	case c.SummaryInterval < 1:
		return fmt.Errorf("MEMORY_SUMMARY_INTERVAL must be positive, got %d", c.SummaryInterval)
	case c.MinFactLength < 0:
		return fmt.Errorf("MEMORY_MIN_FACT_LENGTH must not be negative, got %d", c.MinFactLength)
	case c.ProviderTimeout <= 0:
		return fmt.Errorf("MEMORY_PROVIDER_TIMEOUT must be positive, got %s", c.ProviderTimeout)
	}
	switch c.StoreDriver {
	case StoreDriverFile, StoreDriverBadger:
	default:
		return fmt.Errorf("unknown MEMORY_STORE_DRIVER: %s", c.StoreDriver)
	}
	return nil
}

func (c MemoryConfig) GetStoreDir(homePath string) string {
	if c.StoreDir != "" {
		return c.StoreDir
	}
	if c.StoreDriver == StoreDriverBadger {
		return filepath.Join(homePath, "memory.badger")
	}
	return filepath.Join(homePath, "memory")
}
