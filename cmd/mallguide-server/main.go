// @title Mall Guide API
// @version 1.0
// @description Store directory, display artifacts and admin notifications.
// @BasePath /
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mallguide-server-go/internal/bootstrap"
	"mallguide-server-go/internal/platform/config"
)

type rootOptions struct {
	ConfigPath string
	EnvFile    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	serve := func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] [INFO] [Bootstrap] starting mallguide-server...\n",
			time.Now().Format("2006-01-02 15:04:05.000"))
		return bootstrap.Run(cmd.Context(), bootstrap.Options{
			ConfigPath: opts.ConfigPath,
			EnvFile:    opts.EnvFile,
		})
	}

	cmd := &cobra.Command{
		Use:           "mallguide-server",
		Short:         "Mall directory backend",
		Long:          "Serves the store directory, per-store display artifacts and the realtime admin channel.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to the YAML config (default "+config.DefaultPath+")")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file loaded before the config (default .env)")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and websocket server",
		Args:  cobra.NoArgs,
		RunE:  serve,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check-config",
		Short: "Load and validate the configuration, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := config.NewLoader().WithPath(opts.ConfigPath).WithEnvFile(opts.EnvFile).Load()
			if err != nil {
				return err
			}
			source := result.Path
			if source == "" {
				source = "built-in defaults"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration OK (%s), listening on %s:%d\n",
				source, result.Config.Server.IP, result.Config.Server.Port)
			return nil
		},
	})
	return cmd
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "mallguide-server failed: %v\n", err)
		os.Exit(1)
	}
}
