package main

import (
	"github.com/spf13/cobra"
)

func migrateCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := setup(ctx, *envFiles)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			if err := e.migrate(ctx); err != nil {
				return err
			}
			cmd.Printf("Migrations applied (%s)\n", e.dao.Dialect())
			return nil
		},
	}
}
