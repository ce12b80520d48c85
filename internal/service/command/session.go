package command

import (
	"sync"

	"github.com/sandevgo/tuskctx/internal/core"
)

// Session is the mutable state of one interactive client: the active
// session id and attachments queued for the next message.
type Session struct {
	mu      sync.Mutex
	id      string
	pending []core.AttachmentRef
}

func NewSession(id string) *Session {
	return &Session{id: id}
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Switch changes the active session and drops queued attachments.
func (s *Session) Switch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.pending = nil
}

// Queue adds ref unless a ref with the same file id is already queued.
func (s *Session) Queue(ref core.AttachmentRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pending {
		if p.FileID == ref.FileID {
			return false
		}
	}
	s.pending = append(s.pending, ref)
	return true
}

// Take returns the queued attachments and clears the queue.
func (s *Session) Take() []core.AttachmentRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}
