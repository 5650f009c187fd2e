package ledger

import (
	"github.com/google/uuid"
	"github.com/govalues/money"
)

// Account is a bank account record. ID is assigned by the store on insert and
// never changes; Balance is an exact decimal in the ledger currency and is never
// negative once persisted.
type Account struct {
	ID            uuid.UUID
	AccountNumber string
	Name          string
	Balance       money.Amount
}

// Currency returns the currency code of the account balance.
func (a Account) Currency() string { return a.Balance.Curr().Code() }
