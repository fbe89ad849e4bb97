package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the persisted ledger record for a single customer.
// AccountNumber is the unique primary key and never changes after creation.
type Account struct {
	Name           string          `json:"name"`
	AccountNumber  string          `json:"account_number"`
	Balance        decimal.Decimal `json:"balance"`
	CredentialHash string          `json:"credential_hash"`
	CreatedAt      time.Time       `json:"created_at"`
	LastLoginAt    *time.Time      `json:"last_login_at"`
	IsActive       bool            `json:"is_active"`
}

// AccountSummary is the external projection of an account. It never carries
// the credential hash.
type AccountSummary struct {
	Name          string          `json:"name"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
	LastLoginAt   *time.Time      `json:"last_login_at,omitempty"`
	IsActive      bool            `json:"is_active"`
}

// Summary returns the external view of the account.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		Name:          a.Name,
		AccountNumber: a.AccountNumber,
		Balance:       a.Balance,
		CreatedAt:     a.CreatedAt,
		LastLoginAt:   a.LastLoginAt,
		IsActive:      a.IsActive,
	}
}

// AccountStore is the single source of truth for account records.
// Commit replaces the entire persisted snapshot atomically: either every
// record is durably written or none are. All other operations are read-only
// projections of the last committed snapshot.
type AccountStore interface {
	FindByAccountNumber(accountNumber string) (*Account, error)
	FindByName(name string) (*Account, error)
	LoadAll() ([]Account, error)
	Commit(accounts []Account) error
	CommitTransfer(accounts []Account, entry TransferLog) error
	TransfersFor(accountNumber string) ([]TransferLog, error)
}
