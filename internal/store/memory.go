package store

import (
	"context"
	"fmt"
	"sync"

	"vani-bank-backend/internal/bank"
)

// MemoryStore is a seedable in-memory implementation of bank.Store. It backs
// the dispatcher and transport tests; persistence is just the map write.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]*bank.User
	transactions map[string][]bank.Entry
	charges      map[string][]bank.Entry
	programs     map[string]bank.Program
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]*bank.User),
		transactions: make(map[string][]bank.Entry),
		charges:      make(map[string][]bank.Entry),
		programs:     make(map[string]bank.Program),
	}
}

// Seed helpers.

func (m *MemoryStore) AddUser(userID string, u bank.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = u.Clone()
}

func (m *MemoryStore) SetTransactions(accountID string, entries []bank.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[accountID] = append([]bank.Entry(nil), entries...)
}

func (m *MemoryStore) SetCharges(accountID string, entries []bank.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.charges[accountID] = append([]bank.Entry(nil), entries...)
}

func (m *MemoryStore) AddProgram(loanType string, p bank.Program) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.programs[loanType] = p
}

// bank.Store implementation.

func (m *MemoryStore) GetUser(ctx context.Context, userID string) (*bank.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, bank.ErrNotFound)
	}
	return u.Clone(), nil
}

func (m *MemoryStore) SaveUser(ctx context.Context, userID string, u *bank.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = u.Clone()
	return nil
}

func (m *MemoryStore) Account(ctx context.Context, accountID string) (*bank.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		for _, acc := range u.Profile.Accounts {
			if acc.ID == accountID {
				out := acc
				return &out, nil
			}
		}
	}
	return nil, fmt.Errorf("account %s: %w", accountID, bank.ErrNotFound)
}

func (m *MemoryStore) Transactions(ctx context.Context, accountID string) ([]bank.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]bank.Entry(nil), m.transactions[accountID]...), nil
}

func (m *MemoryStore) Charges(ctx context.Context, accountID string) ([]bank.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]bank.Entry(nil), m.charges[accountID]...), nil
}

func (m *MemoryStore) Program(ctx context.Context, loanType string) (*bank.Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.programs[loanType]
	if !ok {
		return nil, fmt.Errorf("loan program %s: %w", loanType, bank.ErrNotFound)
	}
	return &p, nil
}

func (m *MemoryStore) Programs(ctx context.Context) (map[string]bank.Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bank.Program, len(m.programs))
	for k, v := range m.programs {
		out[k] = v
	}
	return out, nil
}
