package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abelbrown/contextrt/internal/logging"
	"github.com/abelbrown/contextrt/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the message protocol over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logging.SetOutput(os.Stderr, ctx.debug())

			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			addr := cfg.Server.Bind
			if bind != "" {
				addr = bind
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(rt.service,
				server.WithEvents(rt.events),
				server.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
			)
			logging.Info("serving", "addr", addr, "config", ctx.configPath)
			return srv.ListenAndServe(sigCtx, addr)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}
