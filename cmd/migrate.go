package main

import (
	"github.com/spf13/cobra"
)

func migrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema for the configured SQL store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()
			m, ok := store.(migrator)
			if !ok {
				a.log.Info("store has no schema; nothing to migrate", "store", a.cfg.Store)
				return nil
			}
			if err := m.Migrate(ctx); err != nil {
				return err
			}
			a.log.Info("migrations applied", "store", a.cfg.Store)
			return nil
		},
	}
}
