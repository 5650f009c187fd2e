package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tinoosan/bankledger/internal/httpapi"
	v1 "github.com/tinoosan/bankledger/internal/httpapi/v1"
	"github.com/tinoosan/bankledger/internal/ledger"
	"github.com/tinoosan/bankledger/internal/service/account"
)

func serveCommand(a *app) *cobra.Command {
	var addr string
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, migrate)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides BANKLEDGER_ADDR)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving")
	return cmd
}

func (a *app) serve(ctx context.Context, migrate bool) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	a.log.Info("storage backend", "store", a.cfg.Store)

	if m, ok := store.(migrator); ok && migrate {
		if err := m.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	locker, closeLocker, err := a.openLocker(ctx)
	if err != nil {
		return err
	}
	defer closeLocker()

	svc := account.New(store, store, locker, account.WithCurrency(a.cfg.Currency), account.WithLogger(a.log))
	if a.cfg.DevSeed {
		if err := a.seedDev(ctx, svc); err != nil {
			a.log.Error("dev seed failed", "err", err)
		}
	}

	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		return err
	}
	srv := httpapi.NewServer(a.cfg.Addr, v1.New(svc, store, a.log).Handler())
	return httpapi.Run(ctx, srv, ln, a.cfg.ShutdownTimeout, a.log)
}

// seedDev opens a few demo accounts so a fresh server has something to show.
func (a *app) seedDev(ctx context.Context, svc account.Service) error {
	demo := []struct{ number, name, balance string }{
		{"1000000001", "Demo Checking", "1000.00"},
		{"1000000002", "Demo Savings", "250.00"},
		{"1000000003", "Demo Empty", "0"},
	}
	fmt.Println("==================== DEV SEED ====================")
	for _, d := range demo {
		bal, err := ledger.ParseAmount(svc.Currency(), d.balance)
		if err != nil {
			return err
		}
		acc, err := svc.Create(ctx, account.CreateInput{AccountNumber: d.number, Name: d.name, Balance: &bal})
		if err != nil {
			return err
		}
		a.log.Info("dev seed account", "account_id", acc.ID, "name", acc.Name, "balance", ledger.FormatAmount(acc.Balance))
		fmt.Printf("%s: %s\n", acc.Name, acc.ID)
	}
	fmt.Println("==================================================")
	return nil
}
