// Package memory keeps bounded, durable per-session conversation state and
// retrieves the part of it relevant to the current message.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/pkg/log"
)

// Provider is what the manager needs from an LLM backend: embeddings for
// facts and chat for summaries.
type Provider interface {
	core.AIProvider
	core.Embedder
}

type Manager struct {
	store    core.MemoryStore
	provider Provider
	opts     Options
	locks    *sessionLocks
	cache    *snapshotCache
	now      func() time.Time
}

func NewManager(store core.MemoryStore, provider Provider, opts Options) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		store:    store,
		provider: provider,
		opts:     opts,
		locks:    newSessionLocks(),
		cache:    newSnapshotCache(opts.CacheSize),
		now:      time.Now,
	}
}

func (m *Manager) Options() Options {
	return m.opts
}

// PrepareContext returns the summary, the top-K relevant facts and the recent
// history of a session. It never persists anything. Provider and storage
// failures degrade the result; an error is returned only for an empty
// session id or when ctx ends while waiting for the session.
func (m *Manager) PrepareContext(ctx context.Context, sessionID, userMessage string) (core.MemoryContext, error) {
	if sessionID == "" {
		return core.MemoryContext{}, core.ErrSessionIDRequired
	}

	release, err := m.locks.acquire(ctx, sessionID)
	if err != nil {
		return core.MemoryContext{}, fmt.Errorf("wait for session: %w", err)
	}
	snap, _ := m.load(ctx, sessionID)
	release()

	result := core.MemoryContext{
		Summary:       snap.Summary,
		RelevantFacts: []string{},
		RecentHistory: snap.History,
	}

	if len(snap.Facts) == 0 || strings.TrimSpace(userMessage) == "" {
		return result, nil
	}

	vector, err := m.embed(ctx, userMessage)
	if err != nil {
		logger := log.WithSession(ctx, sessionID)
		logger.Warn().Err(err).Msg("failed to embed message, continuing without facts")
		return result, nil
	}
	result.RelevantFacts = rankFacts(snap.Facts, vector, m.opts.VectorSimilarityK, m.opts.MinSimilarity)
	return result, nil
}

// RecordInteraction appends a turn, extracts a fact, refreshes the summary
// when due and persists the snapshot. Enrichment failures are logged and
// skipped. Persistence ignores cancellation of ctx once started.
func (m *Manager) RecordInteraction(ctx context.Context, sessionID, userMessage, answer string) (core.RecordResult, error) {
	if sessionID == "" {
		return core.RecordResult{}, core.ErrSessionIDRequired
	}

	release, err := m.locks.acquire(ctx, sessionID)
	if err != nil {
		return core.RecordResult{}, fmt.Errorf("wait for session: %w", err)
	}
	defer release()

	logger := log.WithSession(ctx, sessionID)
	snap, _ := m.load(ctx, sessionID)
	now := m.now()

	snap.History = append(snap.History,
		core.Message{Role: core.RoleUser, Content: userMessage, Timestamp: now},
		core.Message{Role: core.RoleAssistant, Content: answer, Timestamp: now},
	)
	snap.History = trimHistory(snap.History, m.opts.MaxHistoryMessages)
	snap.MessageCount += 2

	if text, ok := factCandidate(userMessage, m.opts.MinFactLength); ok {
		vector, err := m.embed(ctx, text)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to embed fact, skipping")
		} else {
			snap.Facts = append(snap.Facts, core.Fact{
				ID:        ulid.Make().String(),
				Text:      text,
				Embedding: vector,
				CreatedAt: now,
			})
			snap.Facts = trimFacts(snap.Facts, m.opts.MaxStoredVectors)
		}
	}

	if snap.MessageCount-snap.MessageCountAtLastSummary >= m.opts.SummaryInterval {
		summary, err := m.summarize(ctx, snap)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to refresh summary, keeping previous")
		} else {
			snap.Summary = summary
			snap.MessageCountAtLastSummary = snap.MessageCount
			logger.Debug().Int("message_count", snap.MessageCount).Msg("summary refreshed")
		}
	}

	snap.UpdatedAt = now

	err = m.store.SaveSession(context.WithoutCancel(ctx), snap)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to persist session")
	}
	m.cache.put(snap, err != nil)

	return core.RecordResult{TotalMessages: snap.MessageCount}, nil
}

// Snapshot returns a copy of the stored session, or nil when it does not exist.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*core.Snapshot, error) {
	if sessionID == "" {
		return nil, core.ErrSessionIDRequired
	}
	release, err := m.locks.acquire(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("wait for session: %w", err)
	}
	defer release()

	snap, ok := m.load(ctx, sessionID)
	if !ok {
		return nil, nil
	}
	return snap, nil
}

func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return core.ErrSessionIDRequired
	}
	release, err := m.locks.acquire(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("wait for session: %w", err)
	}
	defer release()

	m.cache.remove(sessionID)
	return m.store.DeleteSession(ctx, sessionID)
}

func (m *Manager) ListSessions(ctx context.Context) ([]string, error) {
	return m.store.ListSessionIDs(ctx)
}

// load returns a private copy of the session and whether it existed. The
// store is authoritative: a cached copy is used only while its last save
// failed or when the store cannot be read.
func (m *Manager) load(ctx context.Context, id string) (*core.Snapshot, bool) {
	cached, dirty, hit := m.cache.get(id)
	if hit && dirty {
		return cached, true
	}

	snap, err := m.store.LoadSession(ctx, id)
	if err != nil {
		logger := log.WithSession(ctx, id)
		if hit {
			logger.Warn().Err(err).Msg("failed to load session, using cached copy")
			return cached, true
		}
		logger.Warn().Err(err).Msg("failed to load session, starting fresh")
	}
	if snap == nil {
		m.cache.remove(id)
		return core.NewSnapshot(id, m.now()), false
	}

	m.normalize(snap, id)
	m.cache.put(snap, false)
	return snap, true
}

// normalize repairs snapshots written by older versions or under larger limits.
func (m *Manager) normalize(snap *core.Snapshot, id string) {
	snap.ID = id
	if snap.History == nil {
		snap.History = []core.Message{}
	}
	if snap.Facts == nil {
		snap.Facts = []core.Fact{}
	}
	snap.History = trimHistory(snap.History, m.opts.MaxHistoryMessages)
	snap.Facts = trimFacts(snap.Facts, m.opts.MaxStoredVectors)
	if snap.MessageCountAtLastSummary > snap.MessageCount {
		snap.MessageCountAtLastSummary = snap.MessageCount
	}
	snap.Version = core.SnapshotVersion
}

func (m *Manager) embed(ctx context.Context, text string) ([]float32, error) {
	if m.provider == nil {
		return nil, errors.New("no embedding provider")
	}
	callCtx, cancel := context.WithTimeout(ctx, m.opts.ProviderTimeout)
	defer cancel()

	vectors, err := m.provider.Embed(callCtx, text)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errors.New("empty embedding")
	}
	return vectors[0], nil
}

func (m *Manager) summarize(ctx context.Context, snap *core.Snapshot) (string, error) {
	if m.provider == nil {
		return "", errors.New("no chat provider")
	}
	callCtx, cancel := context.WithTimeout(ctx, m.opts.ProviderTimeout)
	defer cancel()

	resp, err := m.provider.Chat(callCtx, buildSummaryRequest(snap.Summary, snap.History, snap.Facts, m.opts.SummaryTokenBudget))
	if err != nil {
		return "", err
	}
	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		return "", errors.New("empty summary")
	}
	return summary, nil
}
