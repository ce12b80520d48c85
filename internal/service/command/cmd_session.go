package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandevgo/tuskctx/internal/core"
)

type SessionCommand struct {
	session   *Session
	formatter *ResponseFormatter
}

func NewSessionCommand(session *Session) *SessionCommand {
	return &SessionCommand{session: session, formatter: NewResponseFormatter()}
}

func (c *SessionCommand) Name() string        { return "session" }
func (c *SessionCommand) Description() string { return "Show or switch the active session" }

func (c *SessionCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	if len(args) == 0 {
		return c.formatter.Combine(
			c.formatter.Label("Session", c.session.ID()),
			c.formatter.Usage("/session <id>"),
		), nil
	}
	c.session.Switch(args[0])
	return c.formatter.Success(fmt.Sprintf("Switched to session %s", args[0])), nil
}

type AttachCommand struct {
	session   *Session
	registry  core.UploadRegistry
	formatter *ResponseFormatter
}

func NewAttachCommand(session *Session, registry core.UploadRegistry) *AttachCommand {
	return &AttachCommand{session: session, registry: registry, formatter: NewResponseFormatter()}
}

func (c *AttachCommand) Name() string        { return "attach" }
func (c *AttachCommand) Description() string { return "Attach an uploaded file to the next message" }

func (c *AttachCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	if len(args) == 0 {
		return c.formatter.Usage("/attach <fileId> [fileId...]"), nil
	}

	var lines []string
	for _, id := range args {
		rec, err := c.registry.GetUploadRecord(ctx, id)
		if errors.Is(err, core.ErrUploadNotFound) {
			return "", fmt.Errorf("upload %s not found", id)
		}
		if err != nil {
			return "", fmt.Errorf("lookup upload: %w", err)
		}
		ref := core.AttachmentRef{FileID: rec.FileID, FileName: rec.OriginalName, MimeType: rec.MimeType, Size: rec.Size}
		if c.session.Queue(ref) {
			lines = append(lines, c.formatter.Success(fmt.Sprintf("Queued %s (%s)", rec.OriginalName, rec.FileID)))
		} else {
			lines = append(lines, c.formatter.Empty(fmt.Sprintf("%s is already queued", rec.FileID)))
		}
	}
	return c.formatter.Combine(lines...), nil
}
