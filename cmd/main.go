package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinoosan/bankledger/internal/config"
)

// app carries what every subcommand needs once the root pre-run has loaded it.
type app struct {
	cfg config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "bankledger",
		Short:         "Bank account ledger service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			a.log = buildLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
			slog.SetDefault(a.log)
			return nil
		},
	}
	root.AddCommand(serveCommand(a))
	root.AddCommand(migrateCommand(a))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
