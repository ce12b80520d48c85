package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandevgo/tuskctx/internal/core"
	"github.com/sandevgo/tuskctx/internal/service/chat"
	"github.com/sandevgo/tuskctx/internal/transport/cli"
)

var (
	askSession string
	askAttach  []string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app, err := NewApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close(ctx)

		refs := make([]core.AttachmentRef, 0, len(askAttach))
		for _, id := range askAttach {
			refs = append(refs, core.AttachmentRef{FileID: id})
		}

		resp, err := app.Chat.Handle(ctx, chat.Request{
			SessionID:   askSession,
			Message:     strings.Join(args, " "),
			Attachments: refs,
		})
		if err != nil {
			return fmt.Errorf("ask: %w", err)
		}

		if askJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}
		cli.Render(os.Stdout, resp)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id (generated when empty)")
	askCmd.Flags().StringSliceVarP(&askAttach, "attach", "a", nil, "upload file ids to attach")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full response as JSON")
	rootCmd.AddCommand(askCmd)
}
