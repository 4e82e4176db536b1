package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"fmtd/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent formatting invocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(hist *history.Store) error {
				records, err := hist.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(stdout, "No formatting history recorded")
					return nil
				}

				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					errMsg := rec.ErrorMessage
					if len(errMsg) > 60 {
						errMsg = errMsg[:57] + "..."
					}
					rows = append(rows, []string{
						strconv.FormatInt(rec.ID, 10),
						rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
						filepath.Base(rec.FileName),
						rec.Status,
						rec.Duration.Round(time.Millisecond).String(),
						errMsg,
					})
				}

				table := renderTable(
					[]string{"ID", "When", "File", "Status", "Duration", "Error"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	return cmd
}
