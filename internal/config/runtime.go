package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/tuskctx/pkg/log"
)

// GetHomePath resolves TUSKCTX_HOME, relative paths are anchored at the
// user's home directory.
func GetHomePath() string {
	path := os.Getenv("TUSKCTX_HOME")
	if path == "" {
		path = ".tuskctx"
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}

// LoadDotEnv loads <home>/.env and then ./.env. Values already present in the
// process environment win.
func LoadDotEnv(ctx context.Context, homePath string) {
	logger := log.FromCtx(ctx)
	for _, envFile := range []string{filepath.Join(homePath, ".env"), ".env"} {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
			continue
		}
		logger.Debug().Str("path", envFile).Msg("loaded .env file")
	}
}
