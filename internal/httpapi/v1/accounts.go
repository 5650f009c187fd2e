package v1

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/bankledger/internal/ledger"
	"github.com/tinoosan/bankledger/internal/service/account"
)

func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	in := r.Context().Value(ctxKeyCreate).(account.CreateInput)
	acc, err := s.accounts.Create(r.Context(), in)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	w.Header().Set("Location", "/v1/accounts/"+acc.ID.String())
	toJSON(w, http.StatusCreated, toAccountResponse(acc))
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := s.accounts.List(r.Context())
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	out := make([]accountResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(ctxKeyAccountID).(uuid.UUID)
	acc, err := s.accounts.Get(r.Context(), id)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(acc))
}

func (s *Server) putAccount(w http.ResponseWriter, r *http.Request) {
	a := r.Context().Value(ctxKeyUpdate).(ledger.Account)
	acc, err := s.accounts.Update(r.Context(), a)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(acc))
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(ctxKeyAccountID).(uuid.UUID)
	if err := s.accounts.Delete(r.Context(), id); err != nil {
		writeServiceErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	s.move(w, r, s.accounts.Deposit)
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	s.move(w, r, s.accounts.Withdraw)
}

// move runs a deposit or withdrawal with the amount parsed from the query.
func (s *Server) move(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID, money.Amount) (ledger.Account, error)) {
	id := r.Context().Value(ctxKeyAccountID).(uuid.UUID)
	amt := r.Context().Value(ctxKeyAmount).(money.Amount)
	acc, err := op(r.Context(), id, amt)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(acc))
}
