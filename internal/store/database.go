package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"vani-bank-backend/internal/bank"
	"vani-bank-backend/internal/db"
)

// DatabaseStore keeps users as whole-profile JSONB rows (the store contract
// is a whole-profile overwrite, so a document column fits) and ledger
// entries as one row per entry.
type DatabaseStore struct {
	db *db.DB
}

func NewDatabaseStore(database *db.DB) *DatabaseStore {
	return &DatabaseStore{db: database}
}

func (ds *DatabaseStore) GetUser(ctx context.Context, userID string) (*bank.User, error) {
	var (
		password string
		profile  []byte
	)
	err := ds.db.QueryRowContext(ctx,
		"SELECT password, profile FROM users WHERE user_id = $1",
		userID,
	).Scan(&password, &profile)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", userID, bank.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}

	u := bank.User{Password: password}
	if err := json.Unmarshal(profile, &u.Profile); err != nil {
		return nil, fmt.Errorf("decode profile for %s: %w", userID, err)
	}
	return &u, nil
}

func (ds *DatabaseStore) SaveUser(ctx context.Context, userID string, u *bank.User) error {
	profile, err := json.Marshal(u.Profile)
	if err != nil {
		return fmt.Errorf("encode profile for %s: %w", userID, err)
	}
	_, err = ds.db.ExecContext(ctx, `
		INSERT INTO users (user_id, password, profile, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET
			password = EXCLUDED.password,
			profile = EXCLUDED.profile,
			updated_at = NOW()
	`, userID, u.Password, profile)
	if err != nil {
		return fmt.Errorf("save user %s: %w", userID, err)
	}
	return nil
}

func (ds *DatabaseStore) Account(ctx context.Context, accountID string) (*bank.Account, error) {
	rows, err := ds.db.QueryContext(ctx, "SELECT profile FROM users")
	if err != nil {
		return nil, fmt.Errorf("scan accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var profile bank.Profile
		if err := json.Unmarshal(raw, &profile); err != nil {
			return nil, err
		}
		for _, acc := range profile.Accounts {
			if acc.ID == accountID {
				out := acc
				return &out, nil
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("account %s: %w", accountID, bank.ErrNotFound)
}

func (ds *DatabaseStore) Transactions(ctx context.Context, accountID string) ([]bank.Entry, error) {
	return ds.entries(ctx, accountID, "transaction")
}

func (ds *DatabaseStore) Charges(ctx context.Context, accountID string) ([]bank.Entry, error) {
	return ds.entries(ctx, accountID, "charge")
}

func (ds *DatabaseStore) entries(ctx context.Context, accountID, kind string) ([]bank.Entry, error) {
	rows, err := ds.db.QueryContext(ctx, `
		SELECT entry_date, description, amount
		FROM ledger_entries
		WHERE account_id = $1 AND kind = $2
		ORDER BY id
	`, accountID, kind)
	if err != nil {
		return nil, fmt.Errorf("read %s entries for %s: %w", kind, accountID, err)
	}
	defer rows.Close()

	var out []bank.Entry
	for rows.Next() {
		var e bank.Entry
		if err := rows.Scan(&e.Date, &e.Description, &e.Amount); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (ds *DatabaseStore) Program(ctx context.Context, loanType string) (*bank.Program, error) {
	var p bank.Program
	err := ds.db.QueryRowContext(ctx,
		"SELECT min_score, max_amount, base_rate FROM loan_programs WHERE loan_type = $1",
		loanType,
	).Scan(&p.MinScore, &p.MaxAmount, &p.BaseRate)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("loan program %s: %w", loanType, bank.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get loan program %s: %w", loanType, err)
	}
	return &p, nil
}

func (ds *DatabaseStore) Programs(ctx context.Context) (map[string]bank.Program, error) {
	rows, err := ds.db.QueryContext(ctx,
		"SELECT loan_type, min_score, max_amount, base_rate FROM loan_programs")
	if err != nil {
		return nil, fmt.Errorf("read loan programs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bank.Program)
	for rows.Next() {
		var (
			name string
			p    bank.Program
		)
		if err := rows.Scan(&name, &p.MinScore, &p.MaxAmount, &p.BaseRate); err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, rows.Err()
}

// Seed helpers used by cmd/seeder.

func (ds *DatabaseStore) SeedLedger(ctx context.Context, accountID, kind string, entries []bank.Entry) error {
	for _, e := range entries {
		_, err := ds.db.ExecContext(ctx, `
			INSERT INTO ledger_entries (account_id, kind, entry_date, description, amount)
			VALUES ($1, $2, $3, $4, $5)
		`, accountID, kind, e.Date, e.Description, e.Amount)
		if err != nil {
			return fmt.Errorf("seed %s entry for %s: %w", kind, accountID, err)
		}
	}
	return nil
}

func (ds *DatabaseStore) SeedProgram(ctx context.Context, loanType string, p bank.Program) error {
	_, err := ds.db.ExecContext(ctx, `
		INSERT INTO loan_programs (loan_type, min_score, max_amount, base_rate)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (loan_type)
		DO UPDATE SET
			min_score = EXCLUDED.min_score,
			max_amount = EXCLUDED.max_amount,
			base_rate = EXCLUDED.base_rate
	`, loanType, p.MinScore, p.MaxAmount, p.BaseRate)
	if err != nil {
		return fmt.Errorf("seed loan program %s: %w", loanType, err)
	}
	return nil
}
