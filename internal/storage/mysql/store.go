// Package mysql is a gorm-backed account store for MySQL.
package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/tinoosan/bankledger/internal/errs"
	"github.com/tinoosan/bankledger/internal/ledger"
)

// accountRow is the persisted shape of an account.
type accountRow struct {
	ID            string    `gorm:"type:char(36);primaryKey"`
	AccountNumber string    `gorm:"size:32;not null;default:''"`
	Name          string    `gorm:"size:100;not null;default:''"`
	Currency      string    `gorm:"type:char(3);not null"`
	BalanceMinor  int64     `gorm:"not null;default:0;check:balance_minor >= 0"`
	CreatedAt     time.Time `gorm:"index"`
}

func (accountRow) TableName() string { return "accounts" }

func toRow(a ledger.Account) (accountRow, error) {
	minor, err := ledger.MinorUnits(a.Balance)
	if err != nil {
		return accountRow{}, err
	}
	return accountRow{
		ID:            a.ID.String(),
		AccountNumber: a.AccountNumber,
		Name:          a.Name,
		Currency:      a.Currency(),
		BalanceMinor:  minor,
	}, nil
}

func (r accountRow) toAccount() (ledger.Account, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return ledger.Account{}, pkgerrors.Wrapf(err, "decode account id %q", r.ID)
	}
	bal, err := ledger.AmountFromMinorUnits(r.Currency, r.BalanceMinor)
	if err != nil {
		return ledger.Account{}, pkgerrors.Wrapf(err, "decode balance of account %s", r.ID)
	}
	return ledger.Account{ID: id, AccountNumber: r.AccountNumber, Name: r.Name, Balance: bal}, nil
}

// Store implements the account repo and writer on top of gorm.
type Store struct {
	db *gorm.DB
}

func newStore(db *gorm.DB) *Store { return &Store{db: db} }

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ready pings the database.
func (s *Store) Ready(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or updates the accounts table.
func (s *Store) Migrate(ctx context.Context) error {
	return pkgerrors.Wrap(s.db.WithContext(ctx).AutoMigrate(&accountRow{}), "migrate accounts")
}

func (s *Store) FindAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	var row accountRow
	err := s.db.WithContext(ctx).Where("id = ?", id.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Account{}, pkgerrors.Wrapf(err, "find account %s", id)
	}
	return row.toAccount()
}

func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	var rows []accountRow
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list accounts")
	}
	out := make([]ledger.Account, 0, len(rows))
	for _, r := range rows {
		a, err := r.toAccount()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) InsertAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	a.ID = uuid.New()
	row, err := toRow(a)
	if err != nil {
		return ledger.Account{}, err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return ledger.Account{}, pkgerrors.Wrap(err, "insert account")
	}
	return a, nil
}

// UpdateAccount writes every mutable column, zero values included.
func (s *Store) UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	row, err := toRow(a)
	if err != nil {
		return ledger.Account{}, err
	}
	res := s.db.WithContext(ctx).Model(&accountRow{}).Where("id = ?", row.ID).Updates(map[string]any{
		"account_number": row.AccountNumber,
		"name":           row.Name,
		"currency":       row.Currency,
		"balance_minor":  row.BalanceMinor,
	})
	if res.Error != nil {
		return ledger.Account{}, pkgerrors.Wrapf(res.Error, "update account %s", a.ID)
	}
	if res.RowsAffected == 0 {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&accountRow{})
	if res.Error != nil {
		return pkgerrors.Wrapf(res.Error, "delete account %s", id)
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}
