// Package memory provides an in-memory account store used for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tinoosan/bankledger/internal/errs"
	"github.com/tinoosan/bankledger/internal/ledger"
)

// Store keeps accounts in a map guarded by an RWMutex. ListAccounts returns
// accounts in insertion order.
type Store struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]ledger.Account
	order    []uuid.UUID
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{accounts: make(map[uuid.UUID]ledger.Account)}
}

// SeedAccount stores a as-is, assigning an id when it has none.
func (s *Store) SeedAccount(a ledger.Account) ledger.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	s.putLocked(a)
	return a
}

// Reset drops every account.
func (s *Store) Reset() {
	s.mu.Lock()
	s.accounts = map[uuid.UUID]ledger.Account{}
	s.order = nil
	s.mu.Unlock()
}

// Ready always succeeds; there is nothing to connect to.
func (s *Store) Ready(context.Context) error { return nil }

func (s *Store) putLocked(a ledger.Account) {
	if _, ok := s.accounts[a.ID]; !ok {
		s.order = append(s.order, a.ID)
	}
	s.accounts[a.ID] = a
}

// FindAccount returns the account with id or errs.ErrNotFound.
func (s *Store) FindAccount(_ context.Context, id uuid.UUID) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// ListAccounts returns a snapshot of all accounts.
func (s *Store) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.accounts[id])
	}
	return out, nil
}

// InsertAccount persists a new account under a fresh id.
func (s *Store) InsertAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.New()
	s.putLocked(a)
	return a, nil
}

// UpdateAccount replaces a stored account.
func (s *Store) UpdateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return ledger.Account{}, errs.ErrNotFound
	}
	s.accounts[a.ID] = a
	return a, nil
}

// DeleteAccount removes the account permanently.
func (s *Store) DeleteAccount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.accounts, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
