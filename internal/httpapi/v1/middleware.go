package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/bankledger/internal/ledger"
	"github.com/tinoosan/bankledger/internal/service/account"
)

type ctxKey string

const (
	ctxKeyAccountID ctxKey = "validatedAccountID"
	ctxKeyCreate    ctxKey = "validatedCreateAccount"
	ctxKeyUpdate    ctxKey = "validatedUpdateAccount"
	ctxKeyAmount    ctxKey = "validatedAmount"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json field names in validation errors.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage turns the first failed rule into a client facing message.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return err.Error()
	}
	fe := ve[0]
	switch fe.Field() {
	case "account_number":
		return "account_number must be exactly 10 digits"
	case "name":
		return "name must be between 2 and 50 characters"
	default:
		return fe.Field() + " is invalid"
	}
}

// decodeAccountRequest reads and validates a JSON account body. It writes the
// error response itself and returns false when the request is unusable.
func decodeAccountRequest(w http.ResponseWriter, r *http.Request) (accountRequest, bool) {
	var req accountRequest
	if !requireJSON(w, r) {
		return req, false
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return req, false
	}
	// Length rules apply to the stored value, which the service trims.
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		badRequest(w, validationMessage(err))
		return req, false
	}
	return req, true
}

func (s *Server) parseAmount(raw string) (money.Amount, error) {
	return ledger.ParseAmount(s.accounts.Currency(), raw)
}

// withAccountID parses the {id} path parameter.
func (s *Server) withAccountID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			badRequest(w, "invalid account id")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyAccountID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validatePostAccount parses POST /v1/accounts and stores the CreateInput.
func (s *Server) validatePostAccount() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, ok := decodeAccountRequest(w, r)
			if !ok {
				return
			}
			if req.ID != nil {
				badRequest(w, "id is assigned by the server")
				return
			}
			in := account.CreateInput{AccountNumber: req.AccountNumber, Name: req.Name}
			if req.Balance != nil {
				bal, err := s.parseAmount(req.Balance.raw)
				if err != nil {
					badRequest(w, "invalid balance: "+err.Error())
					return
				}
				in.Balance = &bal
			}
			ctx := context.WithValue(r.Context(), ctxKeyCreate, in)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePutAccount parses a full replacement payload. The id comes from the
// path when present, otherwise from the body.
func (s *Server) validatePutAccount() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, ok := decodeAccountRequest(w, r)
			if !ok {
				return
			}
			pathID, hasPath := r.Context().Value(ctxKeyAccountID).(uuid.UUID)
			var id uuid.UUID
			switch {
			case hasPath && req.ID != nil && *req.ID != pathID:
				badRequest(w, "id in body does not match path")
				return
			case hasPath:
				id = pathID
			case req.ID != nil:
				id = *req.ID
			default:
				badRequest(w, "id is required")
				return
			}
			if req.Balance == nil {
				badRequest(w, "balance is required")
				return
			}
			bal, err := s.parseAmount(req.Balance.raw)
			if err != nil {
				badRequest(w, "invalid balance: "+err.Error())
				return
			}
			a := ledger.Account{ID: id, AccountNumber: req.AccountNumber, Name: req.Name, Balance: bal}
			ctx := context.WithValue(r.Context(), ctxKeyUpdate, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateAmountQuery parses the ?amount= parameter of deposit and withdraw.
func (s *Server) validateAmountQuery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.URL.Query().Get("amount")
			if strings.TrimSpace(raw) == "" {
				badRequest(w, "amount is required")
				return
			}
			amt, err := s.parseAmount(raw)
			if err != nil {
				badRequest(w, "invalid amount: "+err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyAmount, amt)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
