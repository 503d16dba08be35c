package bank

// Intent is the classified kind of a conversational turn.
type Intent string

const (
	IntentGetBalance      Intent = "get_balance"
	IntentGetTransactions Intent = "get_transactions"
	IntentGetCharges      Intent = "get_charges"
	IntentApplyLoan       Intent = "apply_loan"
	IntentConfirmLoan     Intent = "confirm_loan"
	IntentLoanPrograms    Intent = "get_loan_programs"
	IntentBlockCard       Intent = "block_card"
	IntentConfirmBlock    Intent = "confirm_block_card"
	IntentGeneralQuery    Intent = "general_banking_query"
	IntentGreeting        Intent = "greeting"
	IntentCompliment      Intent = "compliment"
	IntentFeedback        Intent = "feedback"
	IntentUnsupported     Intent = "unsupported"
)

// Envelope is the flat message that carries intent plus entities between
// client and server each turn. It is the entire memory of the conversation:
// nothing survives a turn unless the client echoes it back, so directives
// must embed everything a continuation turn needs.
type Envelope struct {
	Intent       Intent  `json:"intent,omitempty"`
	AccountID    string  `json:"account_id,omitempty"`
	CardID       string  `json:"card_id,omitempty"`
	LoanType     string  `json:"loan_type,omitempty"`
	Amount       float64 `json:"amount,omitempty"`
	InterestRate float64 `json:"interest_rate,omitempty"`
}

// HasIntent reports whether the turn is already classified. Classified turns
// skip the NLU oracle entirely; this is how continuation turns re-enter.
func (e Envelope) HasIntent() bool { return e.Intent != "" }
