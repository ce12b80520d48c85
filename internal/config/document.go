package config

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskctx/pkg/log"
)

type DocumentConfig struct {
	MaxChars   int   `env:"DOCUMENT_PARSE_MAX_CHARS" envDefault:"6000"`
	MaxBytes   int64 `env:"DOCUMENT_PARSE_MAX_BYTES" envDefault:"15728640"`
	MaxSheets  int   `env:"DOCUMENT_PARSE_MAX_SHEETS" envDefault:"3"`
	MaxRows    int   `env:"DOCUMENT_PARSE_MAX_ROWS" envDefault:"20"`
	MaxColumns int   `env:"DOCUMENT_PARSE_MAX_COLUMNS" envDefault:"12"`
}

func ParseDocumentConfig() (*DocumentConfig, error) {
	c := &DocumentConfig{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse document config: %w", err)
	}
	c.MaxSheets = max(1, c.MaxSheets)
	c.MaxRows = max(1, c.MaxRows)
	c.MaxColumns = max(1, c.MaxColumns)
	return c, nil
}

func NewDocumentConfig(ctx context.Context) *DocumentConfig {
	c, err := ParseDocumentConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Document config")
	}
	return c
}
