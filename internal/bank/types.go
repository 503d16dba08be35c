package bank

import (
	"context"
	"errors"
	"math"
)

// ErrNotFound reports a user, program, or other domain entity missing from
// the store. Handlers decide whether it becomes a payload or an HTTP status.
var ErrNotFound = errors.New("not found")

// Paise is a fixed-point currency amount in minor units (1 rupee = 100 paise).
type Paise int64

// PaiseFromRupees converts a wire-level rupee amount to minor units.
func PaiseFromRupees(r float64) Paise {
	return Paise(math.Round(r * 100))
}

// Rupees converts back to the wire-level float representation.
func (p Paise) Rupees() float64 {
	return float64(p) / 100
}

const (
	CardActive  = "active"
	CardBlocked = "blocked"

	LoanApproved = "approved"
)

type Account struct {
	ID      string `json:"id"`
	Balance Paise  `json:"balance"`
}

type Card struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type Loan struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Amount       Paise   `json:"amount"`
	Status       string  `json:"status"`
	InterestRate float64 `json:"interest_rate"`
}

// Program is an immutable loan-catalog entry, keyed by loan type in the store.
type Program struct {
	MinScore  int     `json:"min_score"`
	MaxAmount Paise   `json:"max_amount"`
	BaseRate  float64 `json:"base_rate"`
}

// Entry is one ledger row (a transaction or a charge) for an account.
type Entry struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      Paise  `json:"amount"`
}

// Profile is everything the dispatcher knows about a user. Loans and card
// statuses are the only fields it ever mutates.
type Profile struct {
	Name        string    `json:"name"`
	CreditScore int       `json:"credit_score"`
	Accounts    []Account `json:"accounts"`
	Cards       []Card    `json:"cards"`
	Loans       []Loan    `json:"loans"`
}

// User pairs a profile with the login credential. The credential is only
// read by the transport layer, never by the dispatcher.
type User struct {
	Password string  `json:"password"`
	Profile  Profile `json:"profile"`
}

// Clone returns a deep copy so callers can mutate and persist without
// aliasing store-held state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.Profile.Accounts = append([]Account(nil), u.Profile.Accounts...)
	out.Profile.Cards = append([]Card(nil), u.Profile.Cards...)
	out.Profile.Loans = append([]Loan(nil), u.Profile.Loans...)
	return &out
}

// Store is the domain-store contract the dispatcher and transport consume.
// SaveUser is a synchronous whole-profile overwrite; resolution between
// concurrent writers is last-writer-wins.
type Store interface {
	GetUser(ctx context.Context, userID string) (*User, error)
	SaveUser(ctx context.Context, userID string, u *User) error
	// Account resolves an account id across all users (REST surface only).
	Account(ctx context.Context, accountID string) (*Account, error)
	// Transactions and Charges return ordered ledger entries, empty when the
	// account id is unknown.
	Transactions(ctx context.Context, accountID string) ([]Entry, error)
	Charges(ctx context.Context, accountID string) ([]Entry, error)
	Program(ctx context.Context, loanType string) (*Program, error)
	Programs(ctx context.Context) (map[string]Program, error)
}

// EvaluateLoan applies the catalog eligibility rule and returns the quoted
// interest rate: base rate minus 0.0001 per point of credit score above the
// program floor, so the quote is never above the base rate.
func EvaluateLoan(creditScore int, p Program, amount Paise) (float64, bool) {
	if creditScore < p.MinScore || amount > p.MaxAmount {
		return 0, false
	}
	return p.BaseRate - float64(creditScore-p.MinScore)*0.0001, true
}
