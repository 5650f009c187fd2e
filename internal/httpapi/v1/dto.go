package v1

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/tinoosan/bankledger/internal/ledger"
)

// jsonAmount keeps the literal text of a JSON number or string so amounts are
// parsed as exact decimals instead of passing through float64.
type jsonAmount struct {
	raw string
}

func (a *jsonAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0:
		return errors.New("empty amount")
	case b[0] == '"':
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		a.raw = s
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		a.raw = string(b)
	default:
		return errors.New("amount must be a number or a decimal string")
	}
	return nil
}

// accountRequest is the body of POST /v1/accounts and of both PUT forms.
type accountRequest struct {
	ID            *uuid.UUID  `json:"id,omitempty"`
	AccountNumber string      `json:"account_number" validate:"omitempty,len=10,number"`
	Name          string      `json:"name" validate:"omitempty,min=2,max=50"`
	Balance       *jsonAmount `json:"balance"`
}

type accountResponse struct {
	ID            uuid.UUID `json:"id"`
	AccountNumber string    `json:"account_number"`
	Name          string    `json:"name"`
	Balance       string    `json:"balance"`
	Currency      string    `json:"currency"`
}

func toAccountResponse(a ledger.Account) accountResponse {
	return accountResponse{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		Name:          a.Name,
		Balance:       ledger.FormatAmount(a.Balance),
		Currency:      a.Currency(),
	}
}

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error     string     `json:"error"`
	Code      string     `json:"code,omitempty"`
	AccountID *uuid.UUID `json:"account_id,omitempty"`
	Amount    string     `json:"amount,omitempty"`
	Balance   string     `json:"balance,omitempty"`
}
