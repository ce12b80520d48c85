package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandevgo/tuskctx/internal/core"
)

var attachJSON bool

var attachCmd = &cobra.Command{
	Use:   "attach <fileId>...",
	Short: "Print the attachment context built for uploaded files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app, err := NewApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close(ctx)

		refs := make([]core.AttachmentRef, len(args))
		for i, id := range args {
			refs[i] = core.AttachmentRef{FileID: id}
		}
		out := app.Attachments.Build(ctx, refs)

		if attachJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		for _, n := range out.Notes {
			fmt.Fprintln(os.Stderr, n)
		}
		if out.ContextText != "" {
			fmt.Println(out.ContextText)
		}
		return nil
	},
}

func init() {
	attachCmd.Flags().BoolVar(&attachJSON, "json", false, "print analyses as JSON")
	rootCmd.AddCommand(attachCmd)
}
