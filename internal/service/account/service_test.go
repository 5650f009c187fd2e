package account_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinoosan/bankledger/internal/errs"
	"github.com/tinoosan/bankledger/internal/ledger"
	"github.com/tinoosan/bankledger/internal/lock"
	"github.com/tinoosan/bankledger/internal/service/account"
	"github.com/tinoosan/bankledger/internal/storage/memory"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func usd(s string) money.Amount { return ledger.MustParseAmount("USD", s) }

func ptr(a money.Amount) *money.Amount { return &a }

func newService(t *testing.T) (account.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return account.New(store, store, lock.NewKeyedMutex(), account.WithLogger(testLogger())), store
}

func create(t *testing.T, svc account.Service, balance string) ledger.Account {
	t.Helper()
	acc, err := svc.Create(context.Background(), account.CreateInput{
		AccountNumber: gofakeit.Numerify("##########"),
		Name:          gofakeit.Name(),
		Balance:       ptr(usd(balance)),
	})
	require.NoError(t, err)
	return acc
}

func balanceOf(t *testing.T, svc account.Service, id uuid.UUID) money.Amount {
	t.Helper()
	acc, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	return acc.Balance
}

func assertBalance(t *testing.T, svc account.Service, id uuid.UUID, want string) {
	t.Helper()
	got := balanceOf(t, svc, id)
	assert.Truef(t, ledger.EqualAmounts(got, usd(want)), "balance = %s, want %s", got, want)
}

func TestCreate_DefaultsToZeroAndIssuesFreshIDs(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	seen := map[uuid.UUID]bool{}
	for i := 0; i < 20; i++ {
		acc, err := svc.Create(ctx, account.CreateInput{Name: gofakeit.Name()})
		require.NoError(t, err)
		assert.False(t, acc.Balance.IsNeg())
		assert.True(t, acc.Balance.IsZero())
		assert.Equal(t, "USD", acc.Currency())
		assert.False(t, seen[acc.ID], "id reused")
		seen[acc.ID] = true
	}
}

func TestCreate_RejectsBadBalances(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	cases := map[string]money.Amount{
		"negative":   usd("-1"),
		"currency":   ledger.MustParseAmount("EUR", "10"),
		"sub-cent":   money.MustNewAmount("USD", 1, 3),
		"zero value": {},
	}
	for name, bal := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, account.CreateInput{Name: "Jo", Balance: ptr(bal)})
			assert.ErrorIs(t, err, errs.ErrInvalidInput)
		})
	}
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeposit_AddsAmount(t *testing.T) {
	svc, _ := newService(t)
	acc := create(t, svc, "100")
	got, err := svc.Deposit(context.Background(), acc.ID, usd("50.25"))
	require.NoError(t, err)
	assert.True(t, ledger.EqualAmounts(got.Balance, usd("150.25")))
	assertBalance(t, svc, acc.ID, "150.25")
}

func TestDepositWithdraw_RejectNonPositiveAmounts(t *testing.T) {
	svc, _ := newService(t)
	acc := create(t, svc, "100")
	ctx := context.Background()
	for _, amt := range []string{"0", "-5"} {
		_, err := svc.Deposit(ctx, acc.ID, usd(amt))
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
		var e *errs.Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, "amount must be greater than zero", e.Msg)

		_, err = svc.Withdraw(ctx, acc.ID, usd(amt))
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	}
	assertBalance(t, svc, acc.ID, "100")
}

func TestWithdraw_SubtractsAmount(t *testing.T) {
	svc, _ := newService(t)
	acc := create(t, svc, "100")
	got, err := svc.Withdraw(context.Background(), acc.ID, usd("99.99"))
	require.NoError(t, err)
	assert.True(t, ledger.EqualAmounts(got.Balance, usd("0.01")))
}

func TestWithdraw_InsufficientFundsLeavesBalance(t *testing.T) {
	svc, _ := newService(t)
	acc := create(t, svc, "100")
	_, err := svc.Withdraw(context.Background(), acc.ID, usd("100.01"))
	require.ErrorIs(t, err, errs.ErrInsufficientFunds)
	var e *errs.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, acc.ID, e.AccountID)
	assert.Equal(t, "100.01", e.Amount)
	assertBalance(t, svc, acc.ID, "100")
}

func TestOperations_OnMissingAccountAreNotFound(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	id := uuid.New()

	_, err := svc.Get(ctx, id)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = svc.Deposit(ctx, id, usd("1"))
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = svc.Withdraw(ctx, id, usd("1"))
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = svc.Update(ctx, ledger.Account{ID: id, Name: "x", Balance: usd("1")})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, id), errs.ErrNotFound)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(svc.Delete(ctx, id)))
}

func TestUpdate_ReplacesAllFields(t *testing.T) {
	svc, _ := newService(t)
	acc := create(t, svc, "100")
	ctx := context.Background()

	got, err := svc.Update(ctx, ledger.Account{
		ID:            acc.ID,
		AccountNumber: "0123456789",
		Name:          "Renamed",
		Balance:       usd("7.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	assert.Equal(t, "0123456789", got.AccountNumber)
	assert.Equal(t, "Renamed", got.Name)
	assertBalance(t, svc, acc.ID, "7.50")

	_, err = svc.Update(ctx, ledger.Account{ID: acc.ID, Name: "Neg", Balance: usd("-1")})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assertBalance(t, svc, acc.ID, "7.50")
}

func TestDelete_IsPermanent(t *testing.T) {
	svc, _ := newService(t)
	acc := create(t, svc, "1")
	ctx := context.Background()
	require.NoError(t, svc.Delete(ctx, acc.ID))
	for i := 0; i < 3; i++ {
		_, err := svc.Get(ctx, acc.ID)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	}
	next := create(t, svc, "1")
	assert.NotEqual(t, acc.ID, next.ID)
}

func TestList_ReturnsAllAccounts(t *testing.T) {
	svc, _ := newService(t)
	a := create(t, svc, "1")
	b := create(t, svc, "2")
	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)
}

func TestEndToEnd(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	acc, err := svc.Create(ctx, account.CreateInput{AccountNumber: "1234567890", Name: "Ada", Balance: ptr(usd("100.0"))})
	require.NoError(t, err)

	got, err := svc.Deposit(ctx, acc.ID, usd("50.0"))
	require.NoError(t, err)
	assert.True(t, ledger.EqualAmounts(got.Balance, usd("150.0")))

	_, err = svc.Withdraw(ctx, acc.ID, usd("200.0"))
	require.ErrorIs(t, err, errs.ErrInsufficientFunds)
	assertBalance(t, svc, acc.ID, "150.0")

	got, err = svc.Withdraw(ctx, acc.ID, usd("150.0"))
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())

	require.NoError(t, svc.Delete(ctx, acc.ID))
	_, err = svc.Get(ctx, acc.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

// slowStore widens the window between read and write so unserialized
// read-modify-write cycles would lose updates.
type slowStore struct {
	*memory.Store
}

func (s slowStore) FindAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	a, err := s.Store.FindAccount(ctx, id)
	time.Sleep(2 * time.Millisecond)
	return a, err
}

func TestConcurrentDeposits_NoLostUpdate(t *testing.T) {
	store := slowStore{memory.New()}
	svc := account.New(store, store, lock.NewKeyedMutex(), account.WithLogger(testLogger()))
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		acc := create(t, svc, "100")
		var wg sync.WaitGroup
		for _, amt := range []string{"50", "30"} {
			wg.Add(1)
			go func(amt string) {
				defer wg.Done()
				_, err := svc.Deposit(ctx, acc.ID, usd(amt))
				assert.NoError(t, err)
			}(amt)
		}
		wg.Wait()
		assertBalance(t, svc, acc.ID, "180")
	}
}

func TestConcurrentMixedOperations(t *testing.T) {
	svc, _ := newService(t)
	acc := create(t, svc, "0")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Deposit(ctx, acc.ID, usd("0.10"))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.Get(ctx, acc.ID)
		}()
	}
	wg.Wait()
	assertBalance(t, svc, acc.ID, "10")

	var insufficient int
	var mu sync.Mutex
	for i := 0; i < 150; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdraw(ctx, acc.ID, usd("0.10"))
			if errors.Is(err, errs.ErrInsufficientFunds) {
				mu.Lock()
				insufficient++
				mu.Unlock()
				return
			}
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, insufficient)
	assertBalance(t, svc, acc.ID, "0")
}

type failingWriter struct {
	*memory.Store
	err error
}

func (f failingWriter) UpdateAccount(context.Context, ledger.Account) (ledger.Account, error) {
	return ledger.Account{}, f.err
}

func (f failingWriter) DeleteAccount(context.Context, uuid.UUID) error { return f.err }

func TestStoreFailure_IsReportedAsStorageFailure(t *testing.T) {
	store := memory.New()
	acc := store.SeedAccount(ledger.Account{Name: "Ada", Balance: usd("10")})
	w := failingWriter{Store: store, err: errors.New("disk full")}
	svc := account.New(store, w, lock.NewKeyedMutex(), account.WithLogger(testLogger()))
	ctx := context.Background()

	_, err := svc.Deposit(ctx, acc.ID, usd("1"))
	assert.ErrorIs(t, err, errs.ErrStorage)
	assert.Equal(t, errs.KindStorageFailure, errs.KindOf(err))
	assert.ErrorContains(t, err, "disk full")

	assert.ErrorIs(t, svc.Delete(ctx, acc.ID), errs.ErrStorage)
	assertBalance(t, svc, acc.ID, "10")
}

type refusingLocker struct{}

func (refusingLocker) Acquire(context.Context, string) (lock.Release, error) {
	return nil, lock.ErrNotAcquired
}

func TestLockFailure_IsReportedAsStorageFailure(t *testing.T) {
	store := memory.New()
	acc := store.SeedAccount(ledger.Account{Name: "Ada", Balance: usd("10")})
	svc := account.New(store, store, refusingLocker{}, account.WithLogger(testLogger()))

	_, err := svc.Withdraw(context.Background(), acc.ID, usd("1"))
	assert.ErrorIs(t, err, errs.ErrStorage)
	assert.ErrorIs(t, err, lock.ErrNotAcquired)
	assertBalance(t, svc, acc.ID, "10")
}

// leasedLocker is an in-process lock that claims to expire after ttl.
type leasedLocker struct {
	*lock.KeyedMutex
	ttl time.Duration
}

func (l leasedLocker) TTL() time.Duration { return l.ttl }

// stallingStore reads slowly and ignores cancellation, like a stuck connection.
type stallingStore struct {
	*memory.Store
	delay time.Duration
}

func (s stallingStore) FindAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	a, err := s.Store.FindAccount(ctx, id)
	time.Sleep(s.delay)
	return a, err
}

func TestExpiredLease_AbortsWrite(t *testing.T) {
	store := memory.New()
	acc := store.SeedAccount(ledger.Account{Name: "Ada", Balance: usd("10")})
	slow := stallingStore{Store: store, delay: 50 * time.Millisecond}
	locker := leasedLocker{KeyedMutex: lock.NewKeyedMutex(), ttl: 10 * time.Millisecond}
	svc := account.New(slow, store, locker, account.WithLogger(testLogger()))
	ctx := context.Background()

	_, err := svc.Deposit(ctx, acc.ID, usd("5"))
	assert.ErrorIs(t, err, errs.ErrStorage)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = svc.Withdraw(ctx, acc.ID, usd("5"))
	assert.ErrorIs(t, err, errs.ErrStorage)

	_, err = svc.Update(ctx, ledger.Account{ID: acc.ID, Name: "Late", Balance: usd("99")})
	assert.ErrorIs(t, err, errs.ErrStorage)

	assert.ErrorIs(t, svc.Delete(ctx, acc.ID), errs.ErrStorage)

	got, err := store.FindAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.True(t, ledger.EqualAmounts(got.Balance, usd("10")))
}

func TestLease_WithinTTLSucceeds(t *testing.T) {
	store := memory.New()
	acc := store.SeedAccount(ledger.Account{Name: "Ada", Balance: usd("10")})
	locker := leasedLocker{KeyedMutex: lock.NewKeyedMutex(), ttl: time.Second}
	svc := account.New(store, store, locker, account.WithLogger(testLogger()))

	got, err := svc.Deposit(context.Background(), acc.ID, usd("5"))
	require.NoError(t, err)
	assert.True(t, ledger.EqualAmounts(got.Balance, usd("15")))
}

func TestWithCurrency(t *testing.T) {
	store := memory.New()
	svc := account.New(store, store, lock.NewKeyedMutex(), account.WithCurrency("eur"), account.WithLogger(testLogger()))
	assert.Equal(t, "EUR", svc.Currency())

	acc, err := svc.Create(context.Background(), account.CreateInput{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "EUR", acc.Currency())

	_, err = svc.Deposit(context.Background(), acc.ID, usd("1"))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}
