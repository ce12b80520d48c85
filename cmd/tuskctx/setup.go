package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/tuskctx/internal/config"
	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/internal/providers/document"
	"github.com/sandevgo/tuskctx/internal/providers/llm"
	"github.com/sandevgo/tuskctx/internal/providers/vision"
	"github.com/sandevgo/tuskctx/internal/service/attachment"
	"github.com/sandevgo/tuskctx/internal/service/chat"
	"github.com/sandevgo/tuskctx/internal/service/knowledge"
	"github.com/sandevgo/tuskctx/internal/service/memory"
	"github.com/sandevgo/tuskctx/internal/storage/badger"
	"github.com/sandevgo/tuskctx/internal/storage/file"
	"github.com/sandevgo/tuskctx/internal/storage/sqlite"
	"github.com/sandevgo/tuskctx/pkg/log"
	"github.com/sandevgo/tuskctx/pkg/retry"
	"github.com/sandevgo/tuskctx/pkg/srv"
	"github.com/sandevgo/tuskctx/pkg/tokens"
)

// App holds the wired components shared by the subcommands.
type App struct {
	Cfg         *config.AppConfig
	MemoryCfg   *config.MemoryConfig
	ProviderCfg *config.ProviderConfig
	VisionCfg   *config.VisionConfig
	DocumentCfg *config.DocumentConfig

	Provider    core.LLMProvider
	Memory      *memory.Manager
	Uploads     *sqlite.UploadsRepo
	Attachments *attachment.Builder
	Knowledge   *knowledge.Index
	Chat        *chat.Service

	// Cleanups release stores on shutdown, in reverse order of opening.
	Cleanups []srv.Service
}

func loadConfigs(ctx context.Context) *App {
	config.LoadDotEnv(ctx, config.GetHomePath())
	return &App{
		Cfg:         config.NewAppConfig(ctx),
		MemoryCfg:   config.NewMemoryConfig(ctx),
		ProviderCfg: config.NewProviderConfig(ctx),
		VisionCfg:   config.NewVisionConfig(ctx),
		DocumentCfg: config.NewDocumentConfig(ctx),
	}
}

func NewApp(ctx context.Context) (*App, error) {
	logger := log.FromCtx(ctx)
	app := loadConfigs(ctx)

	// 1. Storage
	store, err := initMemoryStore(app)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	db, err := sqlite.NewDB(ctx, app.Cfg.GetUploadDBPath())
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("open upload registry: %w", err)
	}
	app.Cleanups = append(app.Cleanups, srv.NewCleanup(db.Close))
	app.Uploads = sqlite.NewUploadsRepo(db)

	// 2. AI provider
	app.Provider, err = llm.NewProvider(ctx, app.ProviderCfg)
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("init provider: %w", err)
	}

	// 3. Memory
	app.Memory = memory.NewManager(store, app.Provider, memoryOptions(app.MemoryCfg))
	go func() {
		if !tokens.Warm() {
			logger.Warn().Msg("token encoding unavailable, counting with estimates")
		}
	}()

	// 4. Attachments
	images := attachment.NewImageAnalyzer(app.VisionCfg.Timeout,
		vision.NewDoubao(app.VisionCfg),
		vision.NewOpenAI(app.VisionCfg),
		vision.NewGemini(app.VisionCfg),
	)
	app.Attachments = attachment.NewBuilder(app.Uploads, images, document.NewParser(app.DocumentCfg), attachment.BuilderOptions{
		PublicPrefix: app.Cfg.PublicPrefix,
		Concurrency:  app.Cfg.AttachmentConcurrency,
	})

	// 5. Knowledge base
	app.Knowledge = knowledge.NewIndex()
	if dir := app.Cfg.KnowledgeDir; dir != "" {
		if _, err := app.Knowledge.LoadDir(ctx, dir); err != nil {
			logger.Warn().Err(err).Str("dir", dir).Msg("knowledge base not loaded")
		}
	}
	if len(app.Cfg.KnowledgeURLs) > 0 {
		fetcher := knowledge.NewFetcher(app.Cfg.KnowledgeFetchTimeout, retry.NewDefaultRetrier())
		app.Knowledge.LoadURLs(ctx, fetcher, app.Cfg.KnowledgeURLs)
	}

	// 6. Chat pipeline
	app.Chat = chat.NewService(app.Memory, app.Provider, app.Attachments, app.Knowledge, chat.Options{})

	logger.Debug().
		Str("provider", app.Provider.Name()).
		Str("store", app.MemoryCfg.StoreDriver).
		Int("knowledge", app.Knowledge.Len()).
		Msg("app initialized")
	return app, nil
}

func initMemoryStore(app *App) (core.MemoryStore, error) {
	dir := app.MemoryCfg.GetStoreDir(app.Cfg.HomePath)
	switch app.MemoryCfg.StoreDriver {
	case config.StoreDriverBadger:
		st, err := badger.Open(dir)
		if err != nil {
			return nil, fmt.Errorf("open memory store: %w", err)
		}
		app.Cleanups = append(app.Cleanups, srv.NewCleanup(st.Close))
		return st, nil
	default:
		return file.NewMemoryStore(dir), nil
	}
}

// openUploads opens only the upload registry for commands that need nothing else.
func openUploads(ctx context.Context) (*App, *sql.DB, error) {
	app := loadConfigs(ctx)
	db, err := sqlite.NewDB(ctx, app.Cfg.GetUploadDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("open upload registry: %w", err)
	}
	app.Uploads = sqlite.NewUploadsRepo(db)
	return app, db, nil
}

func memoryOptions(c *config.MemoryConfig) memory.Options {
	return memory.Options{
		MaxHistoryMessages: c.MaxHistoryMessages,
		MaxStoredVectors:   c.MaxStoredVectors,
		VectorSimilarityK:  c.VectorSimilarityK,
		SummaryInterval:    c.SummaryInterval,
		MinFactLength:      c.MinFactLength,
		MinSimilarity:      c.MinSimilarity,
		SummaryTokenBudget: c.SummaryTokenBudget,
		CacheSize:          c.CacheSize,
		ProviderTimeout:    c.ProviderTimeout,
	}
}

// Close runs the cleanups directly for commands that do not go through srv.Run.
func (a *App) Close(ctx context.Context) {
	for i := len(a.Cleanups) - 1; i >= 0; i-- {
		if err := a.Cleanups[i].Shutdown(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("cleanup failed")
		}
	}
}
