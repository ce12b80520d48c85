package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandevgo/tuskctx/pkg/env"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as environment variables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		app := loadConfigs(ctx)
		out, err := env.MarshalEnv(app.Cfg, app.MemoryCfg, app.ProviderCfg, app.VisionCfg, app.DocumentCfg)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
