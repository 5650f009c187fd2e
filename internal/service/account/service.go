// Package account implements the ledger rules for bank accounts: balances never go
// negative, deposits and withdrawals move positive amounts, and every mutation of
// one account runs under that account's lock.
package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/tinoosan/bankledger/internal/errs"
	"github.com/tinoosan/bankledger/internal/ledger"
	"github.com/tinoosan/bankledger/internal/lock"
)

type Repo interface {
	FindAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
}

type Writer interface {
	InsertAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (ledger.Account, error)
	Get(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	List(ctx context.Context) ([]ledger.Account, error)
	Deposit(ctx context.Context, id uuid.UUID, amount money.Amount) (ledger.Account, error)
	Withdraw(ctx context.Context, id uuid.UUID, amount money.Amount) (ledger.Account, error)
	Update(ctx context.Context, a ledger.Account) (ledger.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Currency() string
}

// CreateInput describes a new account. A nil Balance opens the account at zero.
type CreateInput struct {
	AccountNumber string
	Name          string
	Balance       *money.Amount
}

// DefaultCurrency is the ledger currency unless WithCurrency says otherwise.
const DefaultCurrency = "USD"

type Option func(*service)

// WithCurrency sets the ledger currency. Amounts in any other currency are rejected.
func WithCurrency(code string) Option {
	return func(s *service) { s.currency = strings.ToUpper(strings.TrimSpace(code)) }
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *service) { s.log = l }
}

type service struct {
	repo     Repo
	writer   Writer
	locker   lock.Locker
	currency string
	log      *slog.Logger
}

func New(repo Repo, writer Writer, locker lock.Locker, opts ...Option) Service {
	s := &service{repo: repo, writer: writer, locker: locker, currency: DefaultCurrency}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

func (s *service) Currency() string { return s.currency }

func (s *service) Create(ctx context.Context, in CreateInput) (acc ledger.Account, err error) {
	defer func() { s.observe(ctx, "create", acc.ID, err) }()
	s.log.DebugContext(ctx, "create account", "account_number", in.AccountNumber, "name", in.Name)

	balance, err := ledger.ZeroAmount(s.currency)
	if err != nil {
		return ledger.Account{}, errs.InvalidInput(uuid.Nil, "", err.Error())
	}
	if in.Balance != nil {
		balance = *in.Balance
		if err := s.checkBalance(uuid.Nil, balance); err != nil {
			return ledger.Account{}, err
		}
	}
	created, err := s.writer.InsertAccount(ctx, ledger.Account{
		AccountNumber: strings.TrimSpace(in.AccountNumber),
		Name:          strings.TrimSpace(in.Name),
		Balance:       balance,
	})
	if err != nil {
		return ledger.Account{}, errs.Storage(uuid.Nil, err)
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (acc ledger.Account, err error) {
	defer func() { s.observe(ctx, "get", id, err) }()
	s.log.DebugContext(ctx, "get account", "account_id", id)
	return s.find(ctx, id)
}

func (s *service) List(ctx context.Context) (out []ledger.Account, err error) {
	defer func() { s.observe(ctx, "list", uuid.Nil, err) }()
	s.log.DebugContext(ctx, "list accounts")
	out, err = s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, errs.Storage(uuid.Nil, err)
	}
	return out, nil
}

func (s *service) Deposit(ctx context.Context, id uuid.UUID, amount money.Amount) (acc ledger.Account, err error) {
	defer func() { s.observe(ctx, "deposit", id, err) }()
	s.log.DebugContext(ctx, "deposit", "account_id", id, "amount", ledger.FormatAmount(amount))
	if err := s.checkAmount(id, amount); err != nil {
		return ledger.Account{}, err
	}
	err = s.withLock(ctx, id, func(ctx context.Context) error {
		cur, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		next, err := cur.Balance.Add(amount)
		if err != nil {
			return errs.InvalidInput(id, ledger.FormatAmount(amount), err.Error())
		}
		if _, err := ledger.MinorUnits(next); err != nil {
			return errs.InvalidInput(id, ledger.FormatAmount(amount), "resulting balance out of range")
		}
		cur.Balance = next
		acc, err = s.save(ctx, cur)
		return err
	})
	if err != nil {
		return ledger.Account{}, err
	}
	return acc, nil
}

func (s *service) Withdraw(ctx context.Context, id uuid.UUID, amount money.Amount) (acc ledger.Account, err error) {
	defer func() { s.observe(ctx, "withdraw", id, err) }()
	s.log.DebugContext(ctx, "withdraw", "account_id", id, "amount", ledger.FormatAmount(amount))
	if err := s.checkAmount(id, amount); err != nil {
		return ledger.Account{}, err
	}
	err = s.withLock(ctx, id, func(ctx context.Context) error {
		cur, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		c, err := cur.Balance.Cmp(amount)
		if err != nil {
			return errs.InvalidInput(id, ledger.FormatAmount(amount), err.Error())
		}
		if c < 0 {
			return errs.InsufficientFunds(id, ledger.FormatAmount(amount), ledger.FormatAmount(cur.Balance))
		}
		next, err := cur.Balance.Sub(amount)
		if err != nil {
			return errs.InvalidInput(id, ledger.FormatAmount(amount), err.Error())
		}
		cur.Balance = next
		acc, err = s.save(ctx, cur)
		return err
	})
	if err != nil {
		return ledger.Account{}, err
	}
	return acc, nil
}

// Update replaces name, account number and balance wholesale. The id selects the
// record and is never changed.
func (s *service) Update(ctx context.Context, a ledger.Account) (acc ledger.Account, err error) {
	defer func() { s.observe(ctx, "update", a.ID, err) }()
	s.log.DebugContext(ctx, "update account", "account_id", a.ID, "account_number", a.AccountNumber,
		"name", a.Name, "balance", ledger.FormatAmount(a.Balance))
	if err := s.checkBalance(a.ID, a.Balance); err != nil {
		return ledger.Account{}, err
	}
	a.AccountNumber = strings.TrimSpace(a.AccountNumber)
	a.Name = strings.TrimSpace(a.Name)
	err = s.withLock(ctx, a.ID, func(ctx context.Context) error {
		if _, err := s.find(ctx, a.ID); err != nil {
			return err
		}
		acc, err = s.save(ctx, a)
		return err
	})
	if err != nil {
		return ledger.Account{}, err
	}
	return acc, nil
}

// Delete removes the account permanently; its id is never handed out again.
func (s *service) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer func() { s.observe(ctx, "delete", id, err) }()
	s.log.DebugContext(ctx, "delete account", "account_id", id)
	return s.withLock(ctx, id, func(ctx context.Context) error {
		if _, err := s.find(ctx, id); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return errs.Storage(id, err)
		}
		if err := s.writer.DeleteAccount(ctx, id); err != nil {
			return storeErr(id, err)
		}
		return nil
	})
}

func (s *service) find(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	a, err := s.repo.FindAccount(ctx, id)
	if err != nil {
		return ledger.Account{}, storeErr(id, err)
	}
	return a, nil
}

// save writes a back. A context that ended during the read, such as an expired
// lock lease, aborts the write.
func (s *service) save(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Account{}, errs.Storage(a.ID, err)
	}
	out, err := s.writer.UpdateAccount(ctx, a)
	if err != nil {
		return ledger.Account{}, storeErr(a.ID, err)
	}
	return out, nil
}

// withLock runs fn while holding the lock for id. A lock that cannot be obtained
// is reported as a storage failure. When the lock expires on its own, fn gets a
// context that ends with the lease so no write lands after another holder
// could have taken over.
func (s *service) withLock(ctx context.Context, id uuid.UUID, fn func(ctx context.Context) error) error {
	release, err := s.locker.Acquire(ctx, id.String())
	if err != nil {
		return errs.Storage(id, err)
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			s.log.WarnContext(ctx, "release account lock", "account_id", id, "err", rerr)
		}
	}()
	if l, ok := s.locker.(lock.Leased); ok && l.TTL() > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.TTL())
		defer cancel()
	}
	return fn(ctx)
}

// checkAmount validates a deposit or withdrawal amount.
func (s *service) checkAmount(id uuid.UUID, amount money.Amount) error {
	if err := s.checkCurrency(id, amount); err != nil {
		return err
	}
	if !amount.IsPos() {
		return errs.InvalidInput(id, ledger.FormatAmount(amount), "amount must be greater than zero")
	}
	return nil
}

// checkBalance validates an absolute balance supplied on create or update.
func (s *service) checkBalance(id uuid.UUID, balance money.Amount) error {
	if err := s.checkCurrency(id, balance); err != nil {
		return err
	}
	if balance.IsNeg() {
		return errs.InvalidInput(id, ledger.FormatAmount(balance), "balance must not be negative")
	}
	return nil
}

func (s *service) checkCurrency(id uuid.UUID, a money.Amount) error {
	if code := a.Curr().Code(); code != s.currency {
		return errs.InvalidInput(id, ledger.FormatAmount(a), "currency "+code+" does not match ledger currency "+s.currency)
	}
	if _, err := ledger.MinorUnits(a); err != nil {
		return errs.InvalidInput(id, ledger.FormatAmount(a), err.Error())
	}
	return nil
}

// storeErr classifies an error coming back from the store. Errors already in the
// taxonomy pass through untouched.
func storeErr(id uuid.UUID, err error) error {
	var e *errs.Error
	switch {
	case errors.As(err, &e):
		return e
	case errors.Is(err, errs.ErrNotFound):
		return errs.NotFound(id)
	default:
		return errs.Storage(id, err)
	}
}
