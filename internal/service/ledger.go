package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
	"account-ledger/internal/store"
)

// LedgerService executes balance queries and atomic transfers against the
// account store. The store has no native multi-record transaction, so every
// transfer serializes its validate-apply-commit sequence behind the guard;
// that serialization is what keeps the conservation and non-negativity
// invariants intact under concurrent requests.
type LedgerService struct {
	accounts domain.AccountStore
	guard    *store.Guard
	logger   *slog.Logger
}

func NewLedgerService(accounts domain.AccountStore, guard *store.Guard, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		accounts: accounts,
		guard:    guard,
		logger:   logger,
	}
}

// GetBalance reads the current balance from the last committed snapshot.
// Reads take no lock: commits replace the snapshot atomically, so a reader
// can never observe a record mid-write.
func (s *LedgerService) GetBalance(ctx context.Context, accountNumber string) (*domain.BalanceResult, error) {
	acct, err := s.accounts.FindByAccountNumber(accountNumber)
	if err != nil {
		return nil, err
	}
	return &domain.BalanceResult{
		AccountNumber: acct.AccountNumber,
		Balance:       acct.Balance,
	}, nil
}

// GetAccount returns the external projection of an account.
func (s *LedgerService) GetAccount(ctx context.Context, accountNumber string) (*domain.AccountSummary, error) {
	acct, err := s.accounts.FindByAccountNumber(accountNumber)
	if err != nil {
		return nil, err
	}
	summary := acct.Summary()
	return &summary, nil
}

// ListTransfers returns the audit log entries touching the account.
func (s *LedgerService) ListTransfers(ctx context.Context, accountNumber string) ([]domain.TransferLog, error) {
	if _, err := s.accounts.FindByAccountNumber(accountNumber); err != nil {
		return nil, err
	}
	return s.accounts.TransfersFor(accountNumber)
}

// Transfer moves amount from one account to another as one atomic unit.
//
// Parameter checks that need no account state run before the lock. Everything
// that depends on balances runs against a snapshot loaded inside the critical
// section, never against a stale read, and both updated records are committed
// in a single atomic snapshot replacement. Any failure leaves the previous
// snapshot untouched.
func (s *LedgerService) Transfer(ctx context.Context, fromAccount, toAccount string, amount decimal.Decimal) (*domain.TransferResult, error) {
	if amount.IsNegative() || amount.IsZero() {
		return nil, errors.ErrInvalidAmount
	}
	if fromAccount == toAccount {
		return nil, errors.ErrSameAccountTransfer
	}

	if err := s.guard.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.guard.Release()

	accounts, err := s.accounts.LoadAll()
	if err != nil {
		return nil, err
	}

	var from, to *domain.Account
	for i := range accounts {
		switch accounts[i].AccountNumber {
		case fromAccount:
			from = &accounts[i]
		case toAccount:
			to = &accounts[i]
		}
	}
	if from == nil || to == nil {
		return nil, errors.ErrAccountNotFound
	}
	if !from.IsActive || !to.IsActive {
		return nil, errors.ErrInactiveAccount
	}

	newFromBalance := from.Balance.Sub(amount)
	if newFromBalance.IsNegative() {
		return nil, errors.ErrInsufficientFunds
	}
	newToBalance := to.Balance.Add(amount)

	from.Balance = newFromBalance
	to.Balance = newToBalance

	entry := domain.TransferLog{
		TransferID:  uuid.New(),
		FromAccount: fromAccount,
		ToAccount:   toAccount,
		Amount:      amount,
		CompletedAt: time.Now().UTC(),
	}

	if err := s.accounts.CommitTransfer(accounts, entry); err != nil {
		s.logger.Error("transfer commit failed",
			"from_account", fromAccount,
			"to_account", toAccount,
			"error", err)
		return nil, err
	}

	s.logger.Info("transfer completed",
		"transfer_id", entry.TransferID,
		"from_account", fromAccount,
		"to_account", toAccount,
		"amount", amount)

	return &domain.TransferResult{
		TransferID:     entry.TransferID,
		FromAccount:    fromAccount,
		ToAccount:      toAccount,
		Amount:         amount,
		NewFromBalance: newFromBalance,
		NewToBalance:   newToBalance,
		CompletedAt:    entry.CompletedAt,
	}, nil
}
