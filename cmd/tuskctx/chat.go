package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sandevgo/tuskctx/internal/service/command"
	"github.com/sandevgo/tuskctx/internal/transport/cli"
	"github.com/sandevgo/tuskctx/pkg/log"
	"github.com/sandevgo/tuskctx/pkg/srv"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long:  `Opens a REPL bound to one session. Slash commands (/help) inspect memory and queue attachments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		app, err := NewApp(ctx)
		if err != nil {
			return err
		}

		session := command.NewSession(chatSession)
		router := command.New(command.NewCommands(app.Memory, app.Uploads, session))

		repl, err := cli.NewReadLine(app.Chat, router, session, app.Cfg.GetHistoryPath())
		if err != nil {
			app.Close(ctx)
			return fmt.Errorf("start repl: %w", err)
		}

		logger := log.FromCtx(ctx)
		logger.Debug().Msg("starting chat")

		services := append(app.Cleanups, repl)
		return srv.Run(ctx, services...)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "cli-local", "session id")
	rootCmd.AddCommand(chatCmd)
}
