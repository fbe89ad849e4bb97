package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferResult is returned for every committed transfer.
type TransferResult struct {
	TransferID     uuid.UUID       `json:"transfer_id"`
	FromAccount    string          `json:"from_account"`
	ToAccount      string          `json:"to_account"`
	Amount         decimal.Decimal `json:"amount"`
	NewFromBalance decimal.Decimal `json:"new_from_balance"`
	NewToBalance   decimal.Decimal `json:"new_to_balance"`
	CompletedAt    time.Time       `json:"completed_at"`
}

// TransferLog is the audit record persisted in the snapshot alongside the
// accounts it touched.
type TransferLog struct {
	TransferID  uuid.UUID       `json:"transfer_id"`
	FromAccount string          `json:"from_account"`
	ToAccount   string          `json:"to_account"`
	Amount      decimal.Decimal `json:"amount"`
	CompletedAt time.Time       `json:"completed_at"`
}

// BalanceResult is the response shape for balance queries.
type BalanceResult struct {
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
}
