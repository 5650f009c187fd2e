// Package postgres provides a pgx-backed account store that satisfies the
// repository and writer interfaces of the account service.
//
// Balances are stored as integer minor units next to the currency code. The schema
// lives in migrations/ and is embedded into the binary; see Migrate.
package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"

	"github.com/tinoosan/bankledger/internal/errs"
	"github.com/tinoosan/bankledger/internal/ledger"
)

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "parse postgres dsn")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, pkgerrors.Wrap(err, "ping postgres")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

const accountColumns = `id, account_number, name, currency, balance_minor`

func scanAccount(row pgx.Row) (ledger.Account, error) {
	var (
		a        ledger.Account
		currency string
		minor    int64
	)
	if err := row.Scan(&a.ID, &a.AccountNumber, &a.Name, &currency, &minor); err != nil {
		return ledger.Account{}, err
	}
	bal, err := ledger.AmountFromMinorUnits(currency, minor)
	if err != nil {
		return ledger.Account{}, pkgerrors.Wrapf(err, "decode balance of account %s", a.ID)
	}
	a.Balance = bal
	return a, nil
}

// FindAccount returns the account with id or errs.ErrNotFound.
func (s *Store) FindAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `select `+accountColumns+` from accounts where id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Account{}, pkgerrors.Wrapf(err, "find account %s", id)
	}
	return a, nil
}

// ListAccounts returns all accounts oldest first.
func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `select `+accountColumns+` from accounts order by created_at, id`)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list accounts")
	}
	defer rows.Close()
	out := make([]ledger.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "scan account")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertAccount inserts a row under a fresh id.
func (s *Store) InsertAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	minor, err := ledger.MinorUnits(a.Balance)
	if err != nil {
		return ledger.Account{}, err
	}
	a.ID = uuid.New()
	_, err = s.pool.Exec(ctx, `
		insert into accounts (id, account_number, name, currency, balance_minor)
		values ($1, $2, $3, $4, $5)
	`, a.ID, a.AccountNumber, a.Name, a.Currency(), minor)
	if err != nil {
		return ledger.Account{}, pkgerrors.Wrap(err, "insert account")
	}
	return a, nil
}

// UpdateAccount overwrites the mutable columns of an existing row.
func (s *Store) UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	minor, err := ledger.MinorUnits(a.Balance)
	if err != nil {
		return ledger.Account{}, err
	}
	ct, err := s.pool.Exec(ctx, `
		update accounts set account_number = $1, name = $2, currency = $3, balance_minor = $4
		where id = $5
	`, a.AccountNumber, a.Name, a.Currency(), minor, a.ID)
	if err != nil {
		return ledger.Account{}, pkgerrors.Wrapf(err, "update account %s", a.ID)
	}
	if ct.RowsAffected() == 0 {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// DeleteAccount removes the row permanently.
func (s *Store) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `delete from accounts where id = $1`, id)
	if err != nil {
		return pkgerrors.Wrapf(err, "delete account %s", id)
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
