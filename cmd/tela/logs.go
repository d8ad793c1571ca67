package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tela/pkg/errlog"
)

func logsCmd(envFiles *[]string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect and purge the error log (t_log)",
	}
	cmd.AddCommand(logsRecentCmd(envFiles), logsPurgeCmd(envFiles))
	return cmd
}

func logsRecentCmd(envFiles *[]string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Print the latest error log entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := setup(ctx, *envFiles)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			entries, err := errlog.NewStore(e.dao, e.log).Recent(ctx, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tCODE\tUSER\tPATH\tREQUEST\tMESSAGE")
			for _, en := range entries {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
					en.Date.Format(time.DateTime), en.Code, en.User, en.Path, en.RequestID, en.Message)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	return cmd
}

func logsPurgeCmd(envFiles *[]string) *cobra.Command {
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete error log entries older than the retention",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := setup(ctx, *envFiles)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			if retention == 0 {
				retention = e.cfg.Errors.Retention
			}
			if retention <= 0 {
				return errlog.ErrInvalidRetention
			}
			before := time.Now().Add(-retention)
			n, err := errlog.NewStore(e.dao, e.log).Purge(ctx, before)
			if err != nil {
				return err
			}
			cmd.Printf("Deleted %d entries older than %s\n", n, before.Format(time.DateTime))
			return nil
		},
	}
	cmd.Flags().DurationVar(&retention, "retention", 0, "keep entries younger than this (default ERROR_LOG_RETENTION)")
	return cmd
}
