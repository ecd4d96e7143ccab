package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clipforge/internal/logging"
	"clipforge/internal/preflight"
	"clipforge/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, logPath, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			if logPath != "" {
				logging.PruneOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)
			}
			if !ctx.configSeen {
				fmt.Fprintf(os.Stderr, "warn: no config file at %s; using defaults\n", ctx.configPath)
			}

			for _, status := range preflight.CheckSystemDeps(signalCtx, cfg) {
				if status.Available {
					continue
				}
				impact := "recipes using this tool will fail"
				if status.Optional {
					impact = "optional feature unavailable"
				}
				logging.WarnWithContext(logger, "dependency unavailable", "dependency_missing",
					logging.String("dependency", status.Name),
					logging.String("detail", status.Detail),
					logging.String(logging.FieldErrorHint, "install it or set its path under [tools]"),
					logging.String(logging.FieldImpact, impact),
				)
			}

			srv, err := server.New(server.Options{Config: cfg, Logger: logger})
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			return srv.ListenAndServe(signalCtx)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override server.bind (host:port)")
	return cmd
}
