package main

import (
	"fmt"

	"taquilla/internal/infra"

	"github.com/spf13/cobra"
)

var migrateRollback bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded SQL migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		if err := infra.RunMigrations(cmd.Context(), db, migrateRollback); err != nil {
			return err
		}
		if migrateRollback {
			fmt.Fprintln(cmd.OutOrStdout(), "rolled back latest migration")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back the latest migration")
}
