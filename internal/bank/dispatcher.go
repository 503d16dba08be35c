package bank

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Canned replies. MsgBusy is shared with the transport, which sends it when
// the oracle rate-limits before the dispatcher is ever invoked.
const (
	MsgBusy        = "The service is currently busy, please try again later."
	MsgGreeting    = "Hello! I'm your banking assistant. How can I help you today?"
	MsgCompliment  = "You're welcome! I'm glad I could help."
	MsgFeedback    = "Thank you for your feedback. I'm always working to improve."
	MsgUnsupported = "I'm sorry, I can't answer that. I can only assist with banking-related questions."
	MsgNoCards     = "You have no cards to block."
	MsgIneligible  = "You are not eligible for this loan: credit score or loan amount out of range."
)

// Dispatcher is the intent state machine. It is a pure function of
// (userID, envelope, text) over current store contents: no per-conversation
// state lives here, every multi-turn flow round-trips through the envelope.
type Dispatcher struct {
	store  Store
	oracle Oracle

	// Serializes read-modify-persist for the two commit intents so two
	// sessions of the same user cannot mint colliding loan ids or clobber
	// each other's card status. Cross-user turns stay fully parallel.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func NewDispatcher(store Store, oracle Oracle) *Dispatcher {
	return &Dispatcher{
		store:     store,
		oracle:    oracle,
		userLocks: make(map[string]*sync.Mutex),
	}
}

func (d *Dispatcher) lockUser(userID string) func() {
	d.mu.Lock()
	lock, ok := d.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		d.userLocks[userID] = lock
	}
	d.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// Dispatch resolves one turn. An unknown userID escalates as ErrNotFound;
// every other domain miss (unknown account, empty ledger, missing card) is
// absorbed into a payload the client can show.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, env Envelope, text string) (Reply, error) {
	if env.Intent == IntentConfirmLoan || env.Intent == IntentConfirmBlock {
		unlock := d.lockUser(userID)
		defer unlock()
	}

	user, err := d.store.GetUser(ctx, userID)
	if err != nil {
		return Reply{}, fmt.Errorf("dispatch %q for user %s: %w", env.Intent, userID, err)
	}

	switch env.Intent {
	case IntentGetBalance, IntentGetTransactions, IntentGetCharges:
		return d.accountRead(ctx, user, env)
	case IntentLoanPrograms:
		programs, err := d.store.Programs(ctx)
		if err != nil {
			return Reply{}, fmt.Errorf("load loan programs: %w", err)
		}
		return directive(Directive{Action: ActionShowLoanPrograms, Programs: programs}), nil
	case IntentApplyLoan:
		return d.applyLoan(ctx, user, env)
	case IntentConfirmLoan:
		return d.confirmLoan(ctx, userID, user, env)
	case IntentBlockCard:
		return d.blockCard(user, env), nil
	case IntentConfirmBlock:
		return d.confirmBlockCard(ctx, userID, user, env)
	case IntentGeneralQuery:
		return d.generalQuery(ctx, user, text), nil
	case IntentGreeting:
		return message(MsgGreeting), nil
	case IntentCompliment:
		return message(MsgCompliment), nil
	case IntentFeedback:
		return message(MsgFeedback), nil
	default:
		// IntentUnsupported and anything the oracle invents.
		return message(MsgUnsupported), nil
	}
}

// accountRead handles the three read intents that share the account
// disambiguation rule: more than one account and no explicit choice means we
// stop and ask, echoing the inbound envelope so the client can resubmit it
// with account_id filled in.
func (d *Dispatcher) accountRead(ctx context.Context, user *User, env Envelope) (Reply, error) {
	accounts := user.Profile.Accounts
	if len(accounts) > 1 && env.AccountID == "" {
		orig := env
		return directive(Directive{
			Action:         ActionSelectAccount,
			Accounts:       accounts,
			OriginalIntent: &orig,
		}), nil
	}

	accountID := env.AccountID
	if accountID == "" && len(accounts) > 0 {
		accountID = accounts[0].ID
	}

	switch env.Intent {
	case IntentGetBalance:
		for _, acc := range accounts {
			if acc.ID == accountID {
				return terminal(Result{Kind: ResultBalance, AccountID: acc.ID, Balance: acc.Balance}), nil
			}
		}
		return notice("Account not found."), nil
	case IntentGetTransactions:
		entries, err := d.store.Transactions(ctx, accountID)
		if err != nil {
			return Reply{}, fmt.Errorf("read transactions for %s: %w", accountID, err)
		}
		if len(entries) == 0 {
			return notice("No transactions found."), nil
		}
		return terminal(Result{Kind: ResultEntries, AccountID: accountID, EntryKind: EntriesTransactions, Entries: entries}), nil
	default: // IntentGetCharges
		entries, err := d.store.Charges(ctx, accountID)
		if err != nil {
			return Reply{}, fmt.Errorf("read charges for %s: %w", accountID, err)
		}
		if len(entries) == 0 {
			return notice("No charges found."), nil
		}
		return terminal(Result{Kind: ResultEntries, AccountID: accountID, EntryKind: EntriesCharges, Entries: entries}), nil
	}
}

// applyLoan is the quote phase: nothing is persisted. The confirm_loan
// directive carries everything the commit turn will echo back.
func (d *Dispatcher) applyLoan(ctx context.Context, user *User, env Envelope) (Reply, error) {
	if env.LoanType == "" {
		programs, err := d.store.Programs(ctx)
		if err != nil {
			return Reply{}, fmt.Errorf("load loan programs: %w", err)
		}
		return directive(Directive{Action: ActionSelectLoanProgram, Programs: programs}), nil
	}

	program, err := d.store.Program(ctx, env.LoanType)
	if errors.Is(err, ErrNotFound) {
		return notice("That loan program is not available."), nil
	}
	if err != nil {
		return Reply{}, fmt.Errorf("load loan program %q: %w", env.LoanType, err)
	}

	score := user.Profile.CreditScore
	rate, eligible := EvaluateLoan(score, *program, PaiseFromRupees(env.Amount))
	if !eligible {
		return message(MsgIneligible), nil
	}
	return directive(Directive{
		Action:       ActionConfirmLoan,
		LoanType:     env.LoanType,
		Amount:       env.Amount,
		InterestRate: rate,
		BaseRate:     program.BaseRate,
		UserScore:    score,
		MinScore:     program.MinScore,
	}), nil
}

// confirmLoan is the commit phase. It trusts the loan_type/amount/rate the
// client echoed back from the quote directive and does not re-check
// eligibility against current score or catalog state; the quote turn is the
// sole gatekeeper. Caller holds the per-user lock.
func (d *Dispatcher) confirmLoan(ctx context.Context, userID string, user *User, env Envelope) (Reply, error) {
	loanID := fmt.Sprintf("loan%d", len(user.Profile.Loans)+1)
	loan := Loan{
		ID:           loanID,
		Type:         env.LoanType,
		Amount:       PaiseFromRupees(env.Amount),
		Status:       LoanApproved,
		InterestRate: env.InterestRate,
	}
	user.Profile.Loans = append(user.Profile.Loans, loan)
	if err := d.store.SaveUser(ctx, userID, user); err != nil {
		return Reply{}, fmt.Errorf("persist loan %s for user %s: %w", loanID, userID, err)
	}
	return terminal(Result{
		Kind:         ResultLoanApproved,
		LoanID:       loanID,
		Amount:       loan.Amount,
		InterestRate: loan.InterestRate,
	}), nil
}

// blockCard never blocks immediately: a resolved card always goes through a
// confirm_block_card round trip first.
func (d *Dispatcher) blockCard(user *User, env Envelope) Reply {
	cards := user.Profile.Cards
	if len(cards) > 1 && env.CardID == "" {
		orig := env
		return directive(Directive{
			Action:         ActionSelectCard,
			Cards:          cards,
			OriginalIntent: &orig,
		})
	}

	cardID := env.CardID
	if cardID == "" && len(cards) > 0 {
		cardID = cards[0].ID
	}
	if cardID == "" {
		return message(MsgNoCards)
	}
	return directive(Directive{Action: ActionConfirmBlockCard, CardID: cardID})
}

// confirmBlockCard sets the card to blocked; blocking an already-blocked
// card writes the same status again, so the commit is idempotent. Caller
// holds the per-user lock.
func (d *Dispatcher) confirmBlockCard(ctx context.Context, userID string, user *User, env Envelope) (Reply, error) {
	for i := range user.Profile.Cards {
		if user.Profile.Cards[i].ID != env.CardID {
			continue
		}
		user.Profile.Cards[i].Status = CardBlocked
		if err := d.store.SaveUser(ctx, userID, user); err != nil {
			return Reply{}, fmt.Errorf("persist card block %s for user %s: %w", env.CardID, userID, err)
		}
		return terminal(Result{Kind: ResultCardBlocked, CardID: env.CardID}), nil
	}
	return notice("Card not found."), nil
}

// generalQuery forwards the user's question to the oracle's free-text
// completion with the credit score as context. Any oracle failure degrades
// to the fixed busy message; the dispatcher never retries.
func (d *Dispatcher) generalQuery(ctx context.Context, user *User, text string) Reply {
	answer, err := d.oracle.Answer(ctx, user.Profile.CreditScore, text)
	if err != nil {
		return message(MsgBusy)
	}
	return message(answer)
}
