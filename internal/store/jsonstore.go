// Package store persists the account ledger as a whole-file JSON snapshot.
// The snapshot is the single source of truth: reads decode the last committed
// file, and Commit replaces it atomically by writing a temp file and renaming
// it over the original. There are no partial writes visible to readers.
package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"account-ledger/internal/domain"
	"account-ledger/internal/errors"
)

const snapshotVersion = 1

type snapshot struct {
	Version   int                  `json:"version"`
	Accounts  []domain.Account     `json:"accounts"`
	Transfers []domain.TransferLog `json:"transfers"`
}

// JSONStore implements domain.AccountStore over a single JSON file.
type JSONStore struct {
	path   string
	logger *slog.Logger
}

func NewJSONStore(path string, logger *slog.Logger) *JSONStore {
	return &JSONStore{
		path:   path,
		logger: logger,
	}
}

var _ domain.AccountStore = (*JSONStore)(nil)

// load decodes the last committed snapshot. A missing file is the bootstrap
// case and yields an empty snapshot; any other failure is StoreUnavailable.
func (s *JSONStore) load() (snapshot, error) {
	var snap snapshot
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return snapshot{Version: snapshotVersion}, nil
		}
		s.logger.Error("failed to open snapshot", "path", s.path, "error", err)
		return snap, errors.ErrStoreUnavailable.WithDetails(err.Error())
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		s.logger.Error("failed to decode snapshot", "path", s.path, "error", err)
		return snap, errors.ErrStoreUnavailable.WithDetails(err.Error())
	}
	return snap, nil
}

// validateUnique rejects snapshots carrying the same account number twice.
// Account numbers are the primary key; a duplicate would make lookups and
// transfer resolution pick an arbitrary record.
func validateUnique(accounts []domain.Account) error {
	seen := make(map[string]struct{}, len(accounts))
	for i := range accounts {
		number := accounts[i].AccountNumber
		if _, dup := seen[number]; dup {
			return errors.NewAppErrorf(errors.InternalError, "duplicate account number %s in snapshot", number)
		}
		seen[number] = struct{}{}
	}
	return nil
}

// write persists the snapshot atomically: encode to path+".tmp", then rename
// over the committed file. A crash mid-write leaves the previous snapshot
// intact.
func (s *JSONStore) write(snap snapshot) error {
	if err := validateUnique(snap.Accounts); err != nil {
		s.logger.Error("rejecting snapshot", "error", err)
		return err
	}
	snap.Version = snapshotVersion
	tmp := s.path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		s.logger.Error("failed to create snapshot temp file", "path", tmp, "error", err)
		return errors.ErrStoreUnavailable.WithDetails(err.Error())
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		s.logger.Error("failed to encode snapshot", "path", tmp, "error", err)
		return errors.ErrStoreUnavailable.WithDetails(err.Error())
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.ErrStoreUnavailable.WithDetails(err.Error())
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		s.logger.Error("failed to replace snapshot", "path", s.path, "error", err)
		return errors.ErrStoreUnavailable.WithDetails(err.Error())
	}
	return nil
}

func (s *JSONStore) FindByAccountNumber(accountNumber string) (*domain.Account, error) {
	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range snap.Accounts {
		if snap.Accounts[i].AccountNumber == accountNumber {
			acct := snap.Accounts[i]
			return &acct, nil
		}
	}
	return nil, errors.ErrAccountNotFound
}

// FindByName matches the display name case-insensitively and returns the
// first match in snapshot order.
func (s *JSONStore) FindByName(name string) (*domain.Account, error) {
	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range snap.Accounts {
		if strings.EqualFold(snap.Accounts[i].Name, name) {
			acct := snap.Accounts[i]
			return &acct, nil
		}
	}
	return nil, errors.ErrAccountNotFound
}

func (s *JSONStore) LoadAll() ([]domain.Account, error) {
	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	return snap.Accounts, nil
}

// Commit replaces the persisted account set, preserving the transfer audit
// log from the previous snapshot.
func (s *JSONStore) Commit(accounts []domain.Account) error {
	snap, err := s.load()
	if err != nil {
		return err
	}
	snap.Accounts = accounts
	return s.write(snap)
}

// CommitTransfer replaces the persisted account set and appends the audit
// entry in the same atomic write, so balances and their audit trail can never
// diverge.
func (s *JSONStore) CommitTransfer(accounts []domain.Account, entry domain.TransferLog) error {
	snap, err := s.load()
	if err != nil {
		return err
	}
	snap.Accounts = accounts
	snap.Transfers = append(snap.Transfers, entry)
	return s.write(snap)
}

func (s *JSONStore) TransfersFor(accountNumber string) ([]domain.TransferLog, error) {
	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.TransferLog, 0)
	for _, tr := range snap.Transfers {
		if tr.FromAccount == accountNumber || tr.ToAccount == accountNumber {
			out = append(out, tr)
		}
	}
	return out, nil
}
