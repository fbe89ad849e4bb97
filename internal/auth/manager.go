package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
	"account-ledger/internal/store"
)

// Manager composes credential verification and token issuance into the
// login/verify contract consumed by the serving layer.
type Manager struct {
	accounts domain.AccountStore
	guard    *store.Guard
	tokens   *TokenService
	logger   *slog.Logger
}

func NewManager(accounts domain.AccountStore, guard *store.Guard, tokens *TokenService, logger *slog.Logger) *Manager {
	return &Manager{
		accounts: accounts,
		guard:    guard,
		tokens:   tokens,
		logger:   logger,
	}
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token   string                `json:"token"`
	Account domain.AccountSummary `json:"account"`
}

// Login authenticates by display name AND account number: both must resolve
// to the same active account and the secret must verify. Every credential
// failure is reported uniformly as InvalidCredentials. On success the
// account's lastLoginAt is committed under the store guard and a fresh token
// is issued.
func (m *Manager) Login(ctx context.Context, name, accountNumber, secret string) (*LoginResult, error) {
	name = strings.TrimSpace(name)
	accountNumber = strings.TrimSpace(accountNumber)
	if name == "" || accountNumber == "" || secret == "" {
		return nil, errors.ErrInvalidCredentials
	}

	acct, err := m.accounts.FindByAccountNumber(accountNumber)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok && appErr.Code == errors.AccountNotFound {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !strings.EqualFold(acct.Name, name) || !acct.IsActive || !VerifySecret(secret, acct.CredentialHash) {
		m.logger.Warn("login rejected", "account_number", accountNumber)
		return nil, errors.ErrInvalidCredentials
	}

	updated, err := m.stampLastLogin(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	token, err := m.tokens.Issue(updated.AccountNumber, updated.Name)
	if err != nil {
		return nil, err
	}

	m.logger.Info("login succeeded", "account_number", accountNumber)
	return &LoginResult{
		Token:   token,
		Account: updated.Summary(),
	}, nil
}

// stampLastLogin re-reads the account inside the exclusive critical section
// and commits the updated snapshot, so it never clobbers a concurrent
// mutation with stale state.
func (m *Manager) stampLastLogin(ctx context.Context, accountNumber string) (*domain.Account, error) {
	if err := m.guard.Acquire(ctx); err != nil {
		return nil, err
	}
	defer m.guard.Release()

	accounts, err := m.accounts.LoadAll()
	if err != nil {
		return nil, err
	}

	var updated *domain.Account
	now := time.Now().UTC()
	for i := range accounts {
		if accounts[i].AccountNumber == accountNumber {
			accounts[i].LastLoginAt = &now
			updated = &accounts[i]
			break
		}
	}
	// The account may have been removed or deactivated between the credential
	// check and this critical section.
	if updated == nil || !updated.IsActive {
		return nil, errors.ErrInvalidCredentials
	}

	if err := m.accounts.Commit(accounts); err != nil {
		return nil, err
	}
	return updated, nil
}

// Authenticate resolves a bearer token to the identity it was issued for.
func (m *Manager) Authenticate(tokenString string) (*Identity, error) {
	identity, err := m.tokens.Validate(tokenString)
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return nil, err
		}
		return nil, errors.ErrUnauthenticated
	}
	return identity, nil
}
