package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"account-ledger/internal/errors"
	"account-ledger/internal/service"
)

type LedgerHandler struct {
	ledger *service.LedgerService
}

func NewLedgerHandler(ledger *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledger: ledger,
	}
}

type TransferRequest struct {
	ToAccount string `json:"to_account"`
	Amount    string `json:"amount"`
}

// requestedAccount resolves the {account_number} path variable and enforces
// that callers only read their own account.
func requestedAccount(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, errors.ErrUnauthenticated)
		return "", false
	}

	accountNumber := mux.Vars(r)["account_number"]
	if accountNumber != identity.AccountNumber {
		writeError(w, errors.NewAppError(errors.Forbidden, "account does not belong to the authenticated user"))
		return "", false
	}
	return accountNumber, true
}

func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountNumber, ok := requestedAccount(w, r)
	if !ok {
		return
	}

	result, err := h.ledger.GetBalance(r.Context(), accountNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *LedgerHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountNumber, ok := requestedAccount(w, r)
	if !ok {
		return
	}

	summary, err := h.ledger.GetAccount(r.Context(), accountNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *LedgerHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	accountNumber, ok := requestedAccount(w, r)
	if !ok {
		return
	}

	transfers, err := h.ledger.ListTransfers(r.Context(), accountNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transfers)
}

// Transfer debits the authenticated account. The source is always the token's
// identity; a caller cannot move funds out of an account it did not log into.
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, errors.ErrUnauthenticated)
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error()))
		return
	}

	result, err := h.ledger.Transfer(r.Context(), identity.AccountNumber, req.ToAccount, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
