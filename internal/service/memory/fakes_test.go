package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sandevgo/tuskctx/internal/core"
)

// fakeProvider embeds by keyword so tests control similarity exactly.
type fakeProvider struct {
	mu        sync.Mutex
	embedErr  error
	chatErr   error
	chatCalls int
	embedded  []string
	prompts   []core.ChatRequest
	keywords  []string
}

func newFakeProvider(keywords ...string) *fakeProvider {
	return &fakeProvider{keywords: keywords}
}

func (f *fakeProvider) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		f.embedded = append(f.embedded, t)
		vec := make([]float32, len(f.keywords)+1)
		vec[len(f.keywords)] = 0.01
		for k, kw := range f.keywords {
			if strings.Contains(t, kw) {
				vec[k] = 1
			}
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeProvider) Chat(ctx context.Context, req core.ChatRequest) (core.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls++
	f.prompts = append(f.prompts, req)
	if f.chatErr != nil {
		return core.ChatResponse{}, f.chatErr
	}
	return core.ChatResponse{Text: "摘要#" + string(rune('0'+f.chatCalls))}, nil
}

func (f *fakeProvider) setEmbedErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedErr = err
}

func (f *fakeProvider) setChatErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatErr = err
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chatCalls
}

// memStore is an in-memory core.MemoryStore that can be told to fail.
type memStore struct {
	mu      sync.Mutex
	data    map[string]*core.Snapshot
	saveErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]*core.Snapshot)}
}

func (s *memStore) LoadSession(ctx context.Context, id string) (*core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.data[id]; ok {
		return snap.Clone(), nil
	}
	return nil, nil
}

func (s *memStore) SaveSession(ctx context.Context, snap *core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.data[snap.ID] = snap.Clone()
	return nil
}

func (s *memStore) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *memStore) ListSessionIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *memStore) stored(id string) *core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[id].Clone()
}

var errProvider = errors.New("provider down")
