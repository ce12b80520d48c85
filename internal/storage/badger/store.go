// Package badger implements core.MemoryStore on an embedded Badger database.
// Each snapshot is a single key, so a save is one atomic transaction.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/pkg/log"
)

const sessionPrefix = "session:"

type MemoryStore struct {
	db *badger.DB
}

var _ core.MemoryStore = (*MemoryStore)(nil)

// Open opens (or creates) a store in dir. An empty dir opens an in-memory
// database, which is what tests use.
func Open(dir string) (*MemoryStore, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &MemoryStore{db: db}, nil
}

func (s *MemoryStore) Close() error {
	return s.db.Close()
}

func key(id string) []byte {
	return []byte(sessionPrefix + id)
}

func (s *MemoryStore) LoadSession(ctx context.Context, id string) (*core.Snapshot, error) {
	if id == "" {
		return nil, core.ErrSessionIDRequired
	}

	var snap *core.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decoded core.Snapshot
			if err := json.Unmarshal(val, &decoded); err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}
			snap = &decoded
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			log.FromCtx(ctx).Warn().Err(err).Str("session", id).Msg("failed to load session, treating as absent")
		}
		return nil, nil
	}
	return snap, nil
}

func (s *MemoryStore) SaveSession(ctx context.Context, snapshot *core.Snapshot) error {
	if snapshot == nil || snapshot.ID == "" {
		return core.ErrSessionIDRequired
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(snapshot.ID), data)
	}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return core.ErrSessionIDRequired
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(id))
	}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *MemoryStore) ListSessionIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(sessionPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), sessionPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}
