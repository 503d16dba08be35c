package types

import "vani-bank-backend/internal/bank"

// TurnRequest is one inbound WebSocket turn. The embedded envelope fields
// marshal flat, so a continuation turn is the directive's original_intent
// plus the user's choice, with token and text alongside.
type TurnRequest struct {
	Token string `json:"token"`
	Text  string `json:"text"`
	bank.Envelope
}

// TurnResponse wraps the rendered payload with the server-side turn latency.
type TurnResponse struct {
	Message      string  `json:"message"`
	ResponseTime float64 `json:"response_time"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

type LoanApplication struct {
	UserID   string  `json:"user_id"`
	LoanType string  `json:"loan_type"`
	Amount   float64 `json:"amount"`
}

type LoanDecision struct {
	ApplicationID string  `json:"application_id,omitempty"`
	Status        string  `json:"status"`
	InterestRate  float64 `json:"interest_rate,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

type CardBlockRequest struct {
	UserID string `json:"user_id"`
	CardID string `json:"card_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
