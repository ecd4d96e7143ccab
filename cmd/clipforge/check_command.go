package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipforge/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failures := 0

			depRows := make([][]string, 0, 3)
			for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				kind := statusOK
				detail := status.Path
				if status.Version != "" {
					detail = status.Version
				}
				if !status.Available {
					detail = status.Detail
					if status.Optional {
						kind = statusWarn
					} else {
						kind = statusError
						failures++
					}
				}
				depRows = append(depRows, []string{
					status.Name,
					kind.label(colorize),
					status.Command,
					detail,
				})
			}
			fmt.Fprintln(out, "Dependencies")
			fmt.Fprintln(out, renderTable(
				[]column{{title: "Name"}, {title: "Status"}, {title: "Command"}, {title: "Detail"}},
				depRows,
			))

			checkRows := make([][]string, 0, 5)
			for _, result := range preflight.RunAll(cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failures++
				}
				checkRows = append(checkRows, []string{
					result.Name,
					kind.label(colorize),
					result.Detail,
				})
			}
			fmt.Fprintln(out, "Filesystem")
			fmt.Fprintln(out, renderTable(
				[]column{{title: "Check"}, {title: "Status"}, {title: "Detail"}},
				checkRows,
			))

			if failures > 0 {
				noun := "checks"
				if failures == 1 {
					noun = "check"
				}
				return fmt.Errorf("%d %s failed", failures, noun)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}
