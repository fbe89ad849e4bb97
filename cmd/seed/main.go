package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"account-ledger/internal/auth"
	"account-ledger/internal/config"
	"account-ledger/internal/domain"
	"account-ledger/internal/store"
)

// main seeds the snapshot file with demo accounts. Each entry in -accounts is
// name:secret:balance; account numbers are generated. Re-running replaces the
// snapshot.
func main() {
	accountsFlag := flag.String("accounts", "Alice:alice-code:1000.00,Bob:bob-code:500.00", "comma-separated name:secret:balance entries")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if dir := filepath.Dir(cfg.Store.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create data directory", "error", err)
			os.Exit(1)
		}
	}

	accounts, err := buildAccounts(*accountsFlag, cfg.Auth.BcryptCost)
	if err != nil {
		logger.Error("failed to build accounts", "error", err)
		os.Exit(1)
	}

	accountStore := store.NewJSONStore(cfg.Store.Path, logger)
	guard := store.NewGuard(cfg.Ledger.LockTimeout)

	if err := guard.Acquire(context.Background()); err != nil {
		logger.Error("failed to acquire store guard", "error", err)
		os.Exit(1)
	}
	defer guard.Release()

	if err := accountStore.Commit(accounts); err != nil {
		logger.Error("failed to commit seed snapshot", "error", err)
		os.Exit(1)
	}

	for _, a := range accounts {
		logger.Info("seeded account",
			"name", a.Name,
			"account_number", a.AccountNumber,
			"balance", a.Balance)
	}
}

func buildAccounts(entries string, bcryptCost int) ([]domain.Account, error) {
	var accounts []domain.Account
	now := time.Now().UTC()
	used := make(map[string]struct{})

	for _, entry := range strings.Split(entries, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid account entry %q, want name:secret:balance", entry)
		}

		balance, err := decimal.NewFromString(parts[2])
		if err != nil {
			return nil, fmt.Errorf("invalid balance in %q: %w", entry, err)
		}
		if balance.IsNegative() {
			return nil, fmt.Errorf("balance must not be negative in %q", entry)
		}

		hash, err := auth.HashSecret(parts[1], bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash secret for %q: %w", parts[0], err)
		}

		number, err := generateAccountNumber(used)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, domain.Account{
			Name:           parts[0],
			AccountNumber:  number,
			Balance:        balance,
			CredentialHash: hash,
			CreatedAt:      now,
			IsActive:       true,
		})
	}
	return accounts, nil
}

// generateAccountNumber returns an 8-digit account number starting with 01,
// redrawing until it finds one not already taken in this run.
func generateAccountNumber(used map[string]struct{}) (string, error) {
	for {
		num, err := rand.Int(rand.Reader, big.NewInt(1000000))
		if err != nil {
			return "", fmt.Errorf("generate account number: %w", err)
		}
		number := fmt.Sprintf("01%06d", num.Int64())
		if _, taken := used[number]; taken {
			continue
		}
		used[number] = struct{}{}
		return number, nil
	}
}
