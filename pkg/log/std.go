package log

import (
	"context"
	stdlog "log"
)

// NewStdLogger adapts the context logger for libraries that want a *log.Logger.
func NewStdLogger(ctx context.Context) *stdlog.Logger {
	l := FromCtx(ctx).With().Str("component", "mcp").Logger()
	return stdlog.New(l, "", 0)
}
