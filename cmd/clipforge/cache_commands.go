package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/logging"
	"clipforge/internal/workspace"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune fetched source videos",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List fetched source videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ws := workspace.New(cfg.Paths.InboundDir, cfg.Paths.OutboundDir)
			artifacts, err := ws.ListCached()
			if err != nil {
				return fmt.Errorf("list cache: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(artifacts) == 0 {
				fmt.Fprintf(out, "No cached sources in %s\n", ws.InboundDir())
				return nil
			}

			now := time.Now()
			rows := make([][]string, 0, len(artifacts))
			var total int64
			for _, artifact := range artifacts {
				total += artifact.Size
				inUse := "no"
				if artifact.InUse {
					inUse = "yes"
				}
				rows = append(rows, []string{
					artifact.JobID,
					filepath.Base(artifact.Path),
					strconv.FormatInt(artifact.Size, 10),
					formatAge(now.Sub(artifact.ModTime)),
					inUse,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]column{
					{title: "Job"},
					{title: "File"},
					{title: "Bytes", right: true},
					{title: "Age", right: true},
					{title: "In Use"},
				},
				rows,
			))
			fmt.Fprintf(out, "%d cached source(s), %d bytes\n", len(artifacts), total)
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration
	var all bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove fetched source videos older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			age := cfg.CacheMaxAge()
			if cmd.Flags().Changed("max-age") {
				age = maxAge
			}
			if all {
				age = 0
			}
			if age < 0 {
				return fmt.Errorf("max-age must not be negative")
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Writer: cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			ws := workspace.New(cfg.Paths.InboundDir, cfg.Paths.OutboundDir)
			result := ws.PruneCache(cmd.Context(), age, logger)

			out := cmd.OutOrStdout()
			for _, path := range result.Removed {
				fmt.Fprintf(out, "Removed %s\n", path)
			}
			for _, path := range result.Skipped {
				fmt.Fprintf(out, "Skipped %s (in use)\n", path)
			}
			fmt.Fprintf(out, "Removed %d cached source(s)\n", len(result.Removed))
			if len(result.Errors) > 0 {
				first := result.Errors[0]
				return fmt.Errorf("prune failed for %d path(s); first: %s: %w", len(result.Errors), first.Path, first.Error)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Remove sources older than this (default cache.max_age_hours)")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every cached source not in use")
	return cmd
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "<1m"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
}
