package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/grobid-jats/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the grobid-jats HTTP API",
	Long: `Serve exposes the process action, the per-context settings and the file
action lookup over HTTP, plus /health/live and /metrics. The server stops
gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.cfg.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a.logger.Info("grobid-jats starting",
			slog.String("version", version),
			slog.String("addr", a.cfg.Server.Addr),
			slog.String("data_dir", a.cfg.Store.DataDir),
		)
		h := server.NewHandler(a.processor, a.settings, a.store, a.logger, version)
		return server.New(a.cfg.Server, h, a.logger).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")

	rootCmd.AddCommand(serveCmd)
}
