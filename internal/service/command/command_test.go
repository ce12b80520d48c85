package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/tuskctx/internal/core"
)

type fakeMemory struct {
	snaps   map[string]*core.Snapshot
	deleted []string
	err     error
}

func (f *fakeMemory) Snapshot(_ context.Context, id string) (*core.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snaps[id], nil
}

func (f *fakeMemory) DeleteSession(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.snaps, id)
	return nil
}

type fakeRegistry map[string]core.UploadRecord

func (f fakeRegistry) GetUploadRecord(_ context.Context, id string) (*core.UploadRecord, error) {
	rec, ok := f[id]
	if !ok {
		return nil, core.ErrUploadNotFound
	}
	return &rec, nil
}

func newTestRouter(mem *fakeMemory, sess *Session) *Router {
	reg := fakeRegistry{"f1": {FileID: "f1", OriginalName: "report.pdf", MimeType: "application/pdf", Size: 10}}
	return New(NewCommands(mem, reg, sess))
}

func TestRouter_Execute(t *testing.T) {
	r := newTestRouter(&fakeMemory{}, NewSession("s"))
	ctx := context.Background()

	out, handled := r.Execute(ctx, "s", "hello")
	assert.False(t, handled)
	assert.Empty(t, out)

	out, handled = r.Execute(ctx, "s", "/nope")
	assert.True(t, handled)
	assert.Contains(t, out, "Unknown command: /nope")

	out, handled = r.Execute(ctx, "s", "  /help ")
	assert.True(t, handled)
	for _, name := range []string{"/attach", "/facts", "/help", "/history", "/reset", "/session", "/summary"} {
		assert.Contains(t, out, name)
	}
}

func TestRouter_ListCommandsSorted(t *testing.T) {
	r := newTestRouter(&fakeMemory{}, NewSession("s"))
	var names []string
	for _, c := range r.ListCommands() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"attach", "facts", "help", "history", "reset", "session", "summary"}, names)
}

func TestMemoryCommands(t *testing.T) {
	mem := &fakeMemory{snaps: map[string]*core.Snapshot{
		"s": {
			ID:           "s",
			Summary:      "用户计划去杭州",
			MessageCount: 6,
			Facts:        []core.Fact{{Text: "我住在上海浦东新区"}},
			History:      []core.Message{{Role: core.RoleUser, Content: "你好"}},
		},
	}}
	r := newTestRouter(mem, NewSession("s"))
	ctx := context.Background()

	out, _ := r.Execute(ctx, "s", "/summary")
	assert.Contains(t, out, "用户计划去杭州")
	assert.Contains(t, out, "6")

	out, _ = r.Execute(ctx, "s", "/facts")
	assert.Contains(t, out, "1. 我住在上海浦东新区")

	out, _ = r.Execute(ctx, "s", "/history")
	assert.Contains(t, out, "[user] 你好")

	out, _ = r.Execute(ctx, "other", "/summary")
	assert.Contains(t, out, "No summary yet.")

	out, _ = r.Execute(ctx, "s", "/reset")
	assert.Contains(t, out, "Session s cleared")
	assert.Equal(t, []string{"s"}, mem.deleted)

	out, _ = r.Execute(ctx, "s", "/facts")
	assert.Contains(t, out, "No facts stored.")
}

func TestMemoryCommands_Error(t *testing.T) {
	r := newTestRouter(&fakeMemory{err: errors.New("disk gone")}, NewSession("s"))
	out, handled := r.Execute(context.Background(), "s", "/history")
	assert.True(t, handled)
	assert.Contains(t, out, "load session: disk gone")
}

func TestSessionAndAttach(t *testing.T) {
	sess := NewSession("s")
	r := newTestRouter(&fakeMemory{}, sess)
	ctx := context.Background()

	out, _ := r.Execute(ctx, sess.ID(), "/attach f1")
	assert.Contains(t, out, "Queued report.pdf (f1)")
	out, _ = r.Execute(ctx, sess.ID(), "/attach f1")
	assert.Contains(t, out, "already queued")

	out, _ = r.Execute(ctx, sess.ID(), "/attach missing")
	assert.Contains(t, out, "upload missing not found")

	refs := sess.Take()
	require.Len(t, refs, 1)
	assert.Equal(t, core.AttachmentRef{FileID: "f1", FileName: "report.pdf", MimeType: "application/pdf", Size: 10}, refs[0])
	assert.Empty(t, sess.Take())

	out, _ = r.Execute(ctx, sess.ID(), "/session")
	assert.Contains(t, out, "s")

	sess.Queue(core.AttachmentRef{FileID: "x"})
	out, _ = r.Execute(ctx, sess.ID(), "/session work")
	assert.Contains(t, out, "Switched to session work")
	assert.Equal(t, "work", sess.ID())
	assert.Empty(t, sess.Take())
}
