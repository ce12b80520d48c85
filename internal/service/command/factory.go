package command

import (
	"github.com/sandevgo/tuskctx/internal/core"
)

func NewCommands(
	memory SessionReader,
	registry core.UploadRegistry,
	session *Session,
) []core.Command {
	return []core.Command{
		NewSummaryCommand(memory),
		NewFactsCommand(memory),
		NewHistoryCommand(memory),
		NewResetCommand(memory),
		NewSessionCommand(session),
		NewAttachCommand(session, registry),
	}
}
