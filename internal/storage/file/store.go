// Package file implements core.MemoryStore with one JSON file per session.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/pkg/log"
)

const (
	snapshotExt = ".json"
	tempExt     = ".tmp"
)

type MemoryStore struct {
	dir string
}

var _ core.MemoryStore = (*MemoryStore)(nil)

// NewMemoryStore does not touch the filesystem; dir is created on first save.
func NewMemoryStore(dir string) *MemoryStore {
	return &MemoryStore{dir: dir}
}

func (s *MemoryStore) Dir() string {
	return s.dir
}

// fileName escapes the id so that path separators and dot segments can never
// leave the store directory.
func fileName(id string) string {
	return url.PathEscape(id) + snapshotExt
}

func (s *MemoryStore) path(id string) string {
	return filepath.Join(s.dir, fileName(id))
}

// LoadSession returns (nil, nil) for a missing, unreadable or corrupt file.
func (s *MemoryStore) LoadSession(ctx context.Context, id string) (*core.Snapshot, error) {
	if id == "" {
		return nil, core.ErrSessionIDRequired
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.FromCtx(ctx).Warn().Err(err).Str("session", id).Msg("failed to read session file, treating as absent")
		}
		return nil, nil
	}

	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("session", id).Msg("corrupt session file, treating as absent")
		return nil, nil
	}
	if snap.ID == "" {
		snap.ID = id
	}
	return &snap, nil
}

// SaveSession writes to a unique temp file in the same directory and renames
// it over the target, so readers see either the old or the new snapshot.
func (s *MemoryStore) SaveSession(ctx context.Context, snapshot *core.Snapshot) error {
	if snapshot == nil || snapshot.ID == "" {
		return core.ErrSessionIDRequired
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	target := s.path(snapshot.ID)
	tmp, err := os.CreateTemp(s.dir, fileName(snapshot.ID)+".*"+tempExt)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}

	log.FromCtx(ctx).Debug().Str("session", snapshot.ID).Str("path", target).Msg("session saved")
	return nil
}

func (s *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return core.ErrSessionIDRequired
	}
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ListSessionIDs returns ids of all snapshot files, sorted. Leftover temp
// files from interrupted saves are ignored.
func (s *MemoryStore) ListSessionIDs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read store dir: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, snapshotExt))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
