package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskctx/pkg/log"
)

type AppConfig struct {
	HomePath     string `env:"TUSKCTX_HOME"`
	UploadDir    string `env:"UPLOAD_DIR"`
	UploadDB     string `env:"UPLOAD_DB"`
	PublicPrefix string `env:"UPLOAD_PUBLIC_PREFIX" envDefault:"/uploads/"`
	KnowledgeDir string `env:"KNOWLEDGE_DIR"`

	KnowledgeURLs         []string      `env:"KNOWLEDGE_URLS" envSeparator:","`
	KnowledgeFetchTimeout time.Duration `env:"KNOWLEDGE_FETCH_TIMEOUT" envDefault:"15s"`

	AttachmentConcurrency int `env:"ATTACHMENT_CONCURRENCY" envDefault:"4"`
}

func ParseAppConfig() (*AppConfig, error) {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse app config: %w", err)
	}
	c.HomePath = GetHomePath()
	if c.AttachmentConcurrency < 1 {
		c.AttachmentConcurrency = 1
	}
	return c, nil
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c, err := ParseAppConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetUploadDir() string {
	if c.UploadDir != "" {
		return c.UploadDir
	}
	return filepath.Join(c.HomePath, "uploads")
}

func (c AppConfig) GetUploadDBPath() string {
	if c.UploadDB != "" {
		return c.UploadDB
	}
	return filepath.Join(c.HomePath, "uploads.db")
}

func (c AppConfig) GetHistoryPath() string {
	return filepath.Join(c.HomePath, "input_history")
}
