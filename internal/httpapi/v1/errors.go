package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/tinoosan/bankledger/internal/errs"
)

// toJSON writes a JSON response with status code.
func toJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeErr(w, http.StatusBadRequest, msg, string(errs.KindInvalidInput))
}

// statusFor maps an error kind onto the HTTP status it is reported with.
func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindInvalidInput, errs.KindInsufficientFunds:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceErr renders an error returned by the account service. Storage
// causes are not echoed to the client.
func writeServiceErr(w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)
	resp := errorResponse{Error: err.Error(), Code: string(kind)}
	var e *errs.Error
	if errors.As(err, &e) {
		resp.Error = e.Msg
		if e.AccountID != uuid.Nil {
			id := e.AccountID
			resp.AccountID = &id
		}
		resp.Amount = e.Amount
		resp.Balance = e.Balance
	}
	if kind == errs.KindStorageFailure {
		resp.Error = "storage failure"
	}
	toJSON(w, statusFor(kind), resp)
}
