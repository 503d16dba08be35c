package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"vani-bank-backend/internal/bank"
)

const (
	usersFile        = "users.json"
	transactionsFile = "transactions.json"
	chargesFile      = "charges.json"
	programsFile     = "loan_programs.json"
)

// FileStore serves the domain from JSON files in a data directory. Everything
// is loaded at open and held in memory; SaveUser synchronously rewrites
// users.json before returning, so a successful mutation is durable.
type FileStore struct {
	mu  sync.RWMutex
	dir string

	users        map[string]*bank.User
	transactions map[string][]bank.Entry
	charges      map[string][]bank.Entry
	programs     map[string]bank.Program
}

func OpenFileStore(dir string) (*FileStore, error) {
	s := &FileStore{
		dir:          dir,
		users:        make(map[string]*bank.User),
		transactions: make(map[string][]bank.Entry),
		charges:      make(map[string][]bank.Entry),
		programs:     make(map[string]bank.Program),
	}
	if err := readJSONFile(filepath.Join(dir, usersFile), &s.users); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if err := readJSONFile(filepath.Join(dir, programsFile), &s.programs); err != nil {
		return nil, fmt.Errorf("load loan programs: %w", err)
	}
	// Ledgers are optional; a missing file is an empty ledger.
	if err := readJSONFile(filepath.Join(dir, transactionsFile), &s.transactions); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if err := readJSONFile(filepath.Join(dir, chargesFile), &s.charges); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load charges: %w", err)
	}
	return s, nil
}

func readJSONFile(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func (s *FileStore) GetUser(ctx context.Context, userID string) (*bank.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, bank.ErrNotFound)
	}
	return u.Clone(), nil
}

func (s *FileStore) SaveUser(ctx context.Context, userID string, u *bank.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = u.Clone()
	return s.persistUsersLocked()
}

// persistUsersLocked rewrites users.json via tmp+rename so a crash mid-write
// never leaves a truncated file behind.
func (s *FileStore) persistUsersLocked() error {
	b, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, usersFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *FileStore) Account(ctx context.Context, accountID string) (*bank.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		for _, acc := range u.Profile.Accounts {
			if acc.ID == accountID {
				out := acc
				return &out, nil
			}
		}
	}
	return nil, fmt.Errorf("account %s: %w", accountID, bank.ErrNotFound)
}

func (s *FileStore) Transactions(ctx context.Context, accountID string) ([]bank.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]bank.Entry(nil), s.transactions[accountID]...), nil
}

func (s *FileStore) Charges(ctx context.Context, accountID string) ([]bank.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]bank.Entry(nil), s.charges[accountID]...), nil
}

func (s *FileStore) Program(ctx context.Context, loanType string) (*bank.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.programs[loanType]
	if !ok {
		return nil, fmt.Errorf("loan program %s: %w", loanType, bank.ErrNotFound)
	}
	return &p, nil
}

func (s *FileStore) Programs(ctx context.Context) (map[string]bank.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bank.Program, len(s.programs))
	for k, v := range s.programs {
		out[k] = v
	}
	return out, nil
}
