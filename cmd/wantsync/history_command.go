package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded import runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.historyService()
			if err != nil {
				return err
			}
			runs, err := svc.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No import runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.ID,
					r.StartedAt.Local().Format(time.DateTime),
					filepath.Base(r.InputPath),
					string(r.Direction),
					r.Username,
					r.Status,
					strconv.Itoa(r.LinesRead),
					strconv.Itoa(r.LinesResolved),
					strconv.Itoa(r.EntriesApplied),
					strconv.Itoa(r.EntriesFailed),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Started", "File", "Direction", "User", "Status", "Lines", "Resolved", "Applied", "Failed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryDeleteCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var unresolved bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the line outcomes of one import run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.historyService()
			if err != nil {
				return err
			}
			run, err := svc.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			lines, err := svc.ListLines(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:       %s\n", run.ID)
			fmt.Fprintf(out, "File:      %s\n", run.InputPath)
			fmt.Fprintf(out, "User:      %s\n", run.Username)
			fmt.Fprintf(out, "Direction: %s\n", run.Direction)
			fmt.Fprintf(out, "Status:    %s\n", run.Status)
			fmt.Fprintf(out, "Started:   %s\n", run.StartedAt.Local().Format(time.DateTime))
			if d := run.Duration(); d > 0 {
				fmt.Fprintf(out, "Duration:  %s\n", d.Round(time.Second))
			}

			rows := make([][]string, 0, len(lines))
			for _, l := range lines {
				if unresolved && len(l.ReleaseIDs) > 0 {
					continue
				}
				rows = append(rows, []string{
					strconv.Itoa(l.LineNo),
					l.Artist,
					l.Title,
					l.ReleaseID,
					string(l.Tier),
					strings.Join(l.ReleaseIDs, " "),
					strconv.Itoa(l.Applied),
					strconv.Itoa(l.Failed),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Line", "Artist", "Title", "Release ID", "Tier", "Matched", "Applied", "Failed"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&unresolved, "unresolved", false, "Only show lines that matched no release")
	return cmd
}

func newHistoryDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a recorded import run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.historyService()
			if err != nil {
				return err
			}
			if err := svc.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
			return nil
		},
	}
}

