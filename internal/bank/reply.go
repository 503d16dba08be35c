package bank

// Directive action names. A directive tells the client to gather more input
// (or an explicit confirmation) and resubmit; a terminal result ends the turn.
const (
	ActionSelectAccount     = "select_account"
	ActionSelectCard        = "select_card"
	ActionSelectLoanProgram = "select_loan_program"
	ActionShowLoanPrograms  = "show_loan_programs"
	ActionConfirmLoan       = "confirm_loan"
	ActionConfirmBlockCard  = "confirm_block_card"
)

// Directive is the continuation half of a reply. OriginalIntent echoes the
// inbound envelope (entities included) so the client can merge its choice in
// and resubmit; amounts are wire-level rupees like the envelope.
type Directive struct {
	Action         string             `json:"action"`
	Accounts       []Account          `json:"accounts,omitempty"`
	Cards          []Card             `json:"cards,omitempty"`
	Programs       map[string]Program `json:"programs,omitempty"`
	LoanType       string             `json:"loan_type,omitempty"`
	Amount         float64            `json:"amount,omitempty"`
	InterestRate   float64            `json:"interest_rate,omitempty"`
	BaseRate       float64            `json:"base_rate,omitempty"`
	UserScore      int                `json:"user_score,omitempty"`
	MinScore       int                `json:"min_score,omitempty"`
	CardID         string             `json:"card_id,omitempty"`
	OriginalIntent *Envelope          `json:"original_intent,omitempty"`
}

// ResultKind discriminates terminal payloads. The dispatcher emits structured
// data only; turning a result into markup is the render package's problem.
type ResultKind string

const (
	ResultBalance      ResultKind = "balance"
	ResultEntries      ResultKind = "entries"
	ResultLoanApproved ResultKind = "loan_approved"
	ResultCardBlocked  ResultKind = "card_blocked"
	// ResultNotice is a short in-band notice (account/card not found, empty
	// ledger). Rendered as markup, still a success at the protocol level.
	ResultNotice ResultKind = "notice"
	// ResultMessage is a plain conversational string: canned replies, loan
	// rejections, and raw oracle answers.
	ResultMessage ResultKind = "message"
)

const (
	EntriesTransactions = "transactions"
	EntriesCharges      = "charges"
)

// Result is the terminal half of a reply.
type Result struct {
	Kind         ResultKind
	AccountID    string
	Balance      Paise
	EntryKind    string
	Entries      []Entry
	LoanID       string
	Amount       Paise
	InterestRate float64
	CardID       string
	Message      string
}

// Reply is the outcome of one dispatched turn. Exactly one of Result or
// Directive is set.
type Reply struct {
	Result    *Result
	Directive *Directive
}

func terminal(r Result) Reply { return Reply{Result: &r} }
func directive(d Directive) Reply { return Reply{Directive: &d} }

func notice(msg string) Reply {
	return terminal(Result{Kind: ResultNotice, Message: msg})
}

func message(msg string) Reply {
	return terminal(Result{Kind: ResultMessage, Message: msg})
}
