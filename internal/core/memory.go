package core

import (
	"context"
	"errors"
	"time"
)

var ErrSessionIDRequired = errors.New("session id is required")

const SnapshotVersion = 1

// Fact is a piece of durable text distilled from a past turn.
type Fact struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot is the persisted state of one session.
type Snapshot struct {
	Version                   int       `json:"version"`
	ID                        string    `json:"id"`
	History                   []Message `json:"history"`
	Facts                     []Fact    `json:"facts"`
	Summary                   string    `json:"summary"`
	MessageCount              int       `json:"messageCount"`
	MessageCountAtLastSummary int       `json:"messageCountAtLastSummary"`
	CreatedAt                 time.Time `json:"createdAt"`
	UpdatedAt                 time.Time `json:"updatedAt"`
}

func NewSnapshot(id string, now time.Time) *Snapshot {
	return &Snapshot{
		Version:   SnapshotVersion,
		ID:        id,
		History:   []Message{},
		Facts:     []Fact{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so callers can mutate without touching cached state.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.History = append([]Message(nil), s.History...)
	c.Facts = make([]Fact, len(s.Facts))
	for i, f := range s.Facts {
		f.Embedding = append([]float32(nil), f.Embedding...)
		c.Facts[i] = f
	}
	return &c
}

// MemoryStore persists session snapshots. LoadSession returns (nil, nil) when
// the session is absent.
type MemoryStore interface {
	LoadSession(ctx context.Context, id string) (*Snapshot, error)
	SaveSession(ctx context.Context, snapshot *Snapshot) error
	DeleteSession(ctx context.Context, id string) error
	ListSessionIDs(ctx context.Context) ([]string, error)
}

type MemoryContext struct {
	Summary       string    `json:"summary"`
	RelevantFacts []string  `json:"relevantFacts"`
	RecentHistory []Message `json:"recentHistory"`
}

type RecordResult struct {
	TotalMessages int `json:"totalMessages"`
}
