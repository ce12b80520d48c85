package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandevgo/tuskctx/internal/service/ui"
	"github.com/sandevgo/tuskctx/internal/service/upload"
	"github.com/sandevgo/tuskctx/pkg/conv"
)

var (
	uploadMime  string
	uploadLimit int
)

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "Manage files available as attachments",
}

var uploadsAddCmd = &cobra.Command{
	Use:   "add <path>...",
	Short: "Copy files into the upload directory and register them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app, db, err := openUploads(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		store := upload.NewStore(app.Cfg.GetUploadDir(), app.Uploads)
		for _, path := range args {
			rec, err := store.Add(ctx, path, uploadMime)
			if err != nil {
				return fmt.Errorf("add %s: %w", path, err)
			}
			fmt.Printf("%s  %s\n", ui.UsageStyle.Render(rec.FileID), rec.OriginalName)
		}
		return nil
	},
}

var uploadsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List registered uploads, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app, db, err := openUploads(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		recs, err := upload.NewStore(app.Cfg.GetUploadDir(), app.Uploads).List(ctx, uploadLimit)
		if err != nil {
			return fmt.Errorf("list uploads: %w", err)
		}
		if len(recs) == 0 {
			fmt.Println(ui.DescStyle.Render("no uploads"))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tSIZE\tUPLOADED")
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.FileID, r.OriginalName, r.MimeType, conv.FormatBytes(r.Size), r.UploadedAt.Format(time.DateTime))
		}
		return w.Flush()
	},
}

var uploadsRmCmd = &cobra.Command{
	Use:   "rm <fileId>...",
	Short: "Remove uploads and their stored files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app, db, err := openUploads(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		store := upload.NewStore(app.Cfg.GetUploadDir(), app.Uploads)
		for _, id := range args {
			if err := store.Remove(ctx, id); err != nil {
				return fmt.Errorf("remove %s: %w", id, err)
			}
			fmt.Println(ui.UsageStyle.Render("removed " + id))
		}
		return nil
	},
}

func init() {
	uploadsAddCmd.Flags().StringVar(&uploadMime, "mime", "", "mime type (detected when empty)")
	uploadsLsCmd.Flags().IntVarP(&uploadLimit, "limit", "n", 50, "maximum number of uploads to list")
	uploadsCmd.AddCommand(uploadsAddCmd, uploadsLsCmd, uploadsRmCmd)
	rootCmd.AddCommand(uploadsCmd)
}
