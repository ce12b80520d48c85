package command

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sandevgo/tuskctx/internal/core"
)

type SessionReader interface {
	Snapshot(ctx context.Context, sessionID string) (*core.Snapshot, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

type SummaryCommand struct {
	memory    SessionReader
	formatter *ResponseFormatter
}

func NewSummaryCommand(memory SessionReader) *SummaryCommand {
	return &SummaryCommand{memory: memory, formatter: NewResponseFormatter()}
}

func (c *SummaryCommand) Name() string        { return "summary" }
func (c *SummaryCommand) Description() string { return "Show the rolling summary of this session" }

func (c *SummaryCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	snap, err := c.memory.Snapshot(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if snap == nil || snap.Summary == "" {
		return c.formatter.Empty("No summary yet."), nil
	}
	return c.formatter.Combine(
		c.formatter.Info("Summary"),
		snap.Summary,
		c.formatter.Label("Messages", strconv.Itoa(snap.MessageCount)),
		c.formatter.Label("Summarized at", strconv.Itoa(snap.MessageCountAtLastSummary)),
	), nil
}

type FactsCommand struct {
	memory    SessionReader
	formatter *ResponseFormatter
}

func NewFactsCommand(memory SessionReader) *FactsCommand {
	return &FactsCommand{memory: memory, formatter: NewResponseFormatter()}
}

func (c *FactsCommand) Name() string        { return "facts" }
func (c *FactsCommand) Description() string { return "List long-term facts kept for this session" }

func (c *FactsCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	snap, err := c.memory.Snapshot(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if snap == nil || len(snap.Facts) == 0 {
		return c.formatter.Empty("No facts stored."), nil
	}
	items := make([]string, len(snap.Facts))
	for i, f := range snap.Facts {
		items[i] = f.Text
	}
	return c.formatter.Combine(
		c.formatter.Info(fmt.Sprintf("Facts (%d)", len(items))),
		c.formatter.Numbered(items),
	), nil
}

type HistoryCommand struct {
	memory    SessionReader
	formatter *ResponseFormatter
}

func NewHistoryCommand(memory SessionReader) *HistoryCommand {
	return &HistoryCommand{memory: memory, formatter: NewResponseFormatter()}
}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Description() string { return "Show the recent messages kept in memory" }

func (c *HistoryCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	snap, err := c.memory.Snapshot(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if snap == nil || len(snap.History) == 0 {
		return c.formatter.Empty("History is empty."), nil
	}
	items := make([]string, len(snap.History))
	for i, m := range snap.History {
		items[i] = fmt.Sprintf("[%s] %s", m.Role, m.Content)
	}
	return c.formatter.Combine(
		c.formatter.Info("Recent history"),
		c.formatter.List(items),
	), nil
}

type ResetCommand struct {
	memory    SessionReader
	formatter *ResponseFormatter
}

func NewResetCommand(memory SessionReader) *ResetCommand {
	return &ResetCommand{memory: memory, formatter: NewResponseFormatter()}
}

func (c *ResetCommand) Name() string        { return "reset" }
func (c *ResetCommand) Description() string { return "Forget everything stored for this session" }

func (c *ResetCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	if err := c.memory.DeleteSession(ctx, sessionID); err != nil {
		return "", fmt.Errorf("delete session: %w", err)
	}
	return c.formatter.Success(fmt.Sprintf("Session %s cleared", sessionID)), nil
}
