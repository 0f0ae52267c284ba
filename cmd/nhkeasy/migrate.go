package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the news table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}

			if cfg.Database.DSN == "" {
				return fmt.Errorf("no database configured: set DATABASE_URL or database.dsn")
			}

			st, err := openStore(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✅ Schema is up to date")

			return nil
		},
	}
}
