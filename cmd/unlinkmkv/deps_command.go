package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"unlinkmkv/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check the external binaries the pipeline needs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			tools, err := ctx.newTools(logger)
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(tools.Binaries()))

			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "missing"
				if status.Available {
					state = "found"
				}
				detail := status.Detail
				if detail == "" {
					detail = status.Command
				}
				rows = append(rows, []string{
					status.Name,
					state,
					yesNo(status.Optional),
					detail,
					status.Description,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]tableColumn{
					{title: "Binary"},
					{title: "Status"},
					{title: "Optional"},
					{title: "Detail"},
					{title: "Purpose"},
				},
				rows,
			))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required binaries: %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}
	return cmd
}
