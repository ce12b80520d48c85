package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/internal/service/chat"
	"github.com/sandevgo/tuskctx/internal/service/command"
	"github.com/sandevgo/tuskctx/internal/service/ui"
	"github.com/sandevgo/tuskctx/pkg/log"
)

type Chatter interface {
	Handle(ctx context.Context, req chat.Request) (chat.Response, error)
}

type ReadLine struct {
	chat    Chatter
	router  core.CmdRouter
	session *command.Session
	rl      *readline.Instance
}

func NewReadLine(c Chatter, router core.CmdRouter, session *command.Session, historyFile string) (*ReadLine, error) {
	if err := os.MkdirAll(filepath.Dir(historyFile), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("init readline: %w", err)
	}

	return &ReadLine{
		chat:    c,
		router:  router,
		session: session,
		rl:      rl,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Str("session", r.session.ID()).Msg("chat started, type /help for commands or 'exit' to quit")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		r.handleLine(ctx, line)
	}
}

func (r *ReadLine) handleLine(ctx context.Context, line string) {
	out := r.rl.Stdout()

	if res, ok := r.router.Execute(ctx, r.session.ID(), line); ok {
		fmt.Fprintln(out, res)
		return
	}

	refs := r.session.Take()
	resp, err := r.chat.Handle(ctx, chat.Request{
		SessionID:   r.session.ID(),
		Message:     line,
		Attachments: refs,
	})
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("chat turn failed")
		fmt.Fprintln(out, ui.ErrorStyle.Render("Error: "+err.Error()))
		return
	}
	Render(out, resp)
}

// Render prints a chat response the way the REPL and `ask` show it.
func Render(out io.Writer, resp chat.Response) {
	if resp.Attachments != nil {
		for _, n := range resp.Attachments.Notes {
			fmt.Fprintln(out, ui.FlagStyle.Render("! "+n))
		}
	}
	fmt.Fprintln(out, ui.AnswerStyle.Render(resp.Answer))
	for _, w := range resp.Warnings {
		fmt.Fprintln(out, ui.DescStyle.Render("warning: "+w))
	}
	if len(resp.Sources) > 0 {
		ids := make([]string, len(resp.Sources))
		for i, s := range resp.Sources {
			ids[i] = s.ID
		}
		fmt.Fprintln(out, ui.DescStyle.Render("sources: "+strings.Join(ids, ", ")))
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
