package bank_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vani-bank-backend/internal/bank"
	"vani-bank-backend/internal/store"
)

type stubOracle struct {
	classification bank.Classification
	classifyErr    error
	answer         string
	answerErr      error
}

func (s *stubOracle) Classify(ctx context.Context, text string) (bank.Classification, error) {
	return s.classification, s.classifyErr
}

func (s *stubOracle) Answer(ctx context.Context, creditScore int, question string) (string, error) {
	return s.answer, s.answerErr
}

// newTestStore seeds two users: u1 has two accounts and two cards (the
// disambiguation paths), u2 has exactly one of each.
func newTestStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	st := store.NewMemoryStore()
	st.AddUser("u1", bank.User{
		Password: "pw",
		Profile: bank.Profile{
			Name:        "User One",
			CreditScore: 700,
			Accounts: []bank.Account{
				{ID: "a1", Balance: 15230050},
				{ID: "a2", Balance: 4200000},
			},
			Cards: []bank.Card{
				{ID: "c1", Status: bank.CardActive},
				{ID: "c2", Status: bank.CardActive},
			},
		},
	})
	st.AddUser("u2", bank.User{
		Password: "pw",
		Profile: bank.Profile{
			Name:        "User Two",
			CreditScore: 600,
			Accounts:    []bank.Account{{ID: "a9", Balance: 880075}},
			Cards:       []bank.Card{{ID: "c9", Status: bank.CardActive}},
		},
	})
	st.AddUser("u3", bank.User{
		Password: "pw",
		Profile:  bank.Profile{Name: "User Three", CreditScore: 640},
	})
	st.AddProgram("personal_loan", bank.Program{
		MinScore:  650,
		MaxAmount: bank.PaiseFromRupees(100000),
		BaseRate:  0.12,
	})
	st.SetTransactions("a1", []bank.Entry{
		{Date: "2025-08-01", Description: "Salary credit", Amount: 8500000},
		{Date: "2025-08-03", Description: "Rent payment", Amount: -2500000},
	})
	st.SetCharges("a1", []bank.Entry{
		{Date: "2025-08-02", Description: "Annual card fee", Amount: 49900},
	})
	return st
}

func newTestDispatcher(t *testing.T) (*bank.Dispatcher, *store.MemoryStore, *stubOracle) {
	t.Helper()
	st := newTestStore(t)
	oracle := &stubOracle{}
	return bank.NewDispatcher(st, oracle), st, oracle
}

func TestDispatchBalanceDisambiguates(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, err := d.Dispatch(context.Background(), "u1", bank.Envelope{Intent: bank.IntentGetBalance}, "")
	require.NoError(t, err)
	require.NotNil(t, reply.Directive)
	assert.Nil(t, reply.Result)
	assert.Equal(t, bank.ActionSelectAccount, reply.Directive.Action)
	require.Len(t, reply.Directive.Accounts, 2)
	assert.Equal(t, "a1", reply.Directive.Accounts[0].ID)
	assert.Equal(t, "a2", reply.Directive.Accounts[1].ID)
	require.NotNil(t, reply.Directive.OriginalIntent)
	assert.Equal(t, bank.IntentGetBalance, reply.Directive.OriginalIntent.Intent)
}

func TestDispatchBalanceSingleAccountImplicit(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	implicit, err := d.Dispatch(ctx, "u2", bank.Envelope{Intent: bank.IntentGetBalance}, "")
	require.NoError(t, err)
	explicit, err := d.Dispatch(ctx, "u2", bank.Envelope{Intent: bank.IntentGetBalance, AccountID: "a9"}, "")
	require.NoError(t, err)

	require.NotNil(t, implicit.Result)
	assert.Equal(t, explicit, implicit)
	assert.Equal(t, bank.ResultBalance, implicit.Result.Kind)
	assert.Equal(t, bank.Paise(880075), implicit.Result.Balance)
}

func TestDispatchBalanceUnknownAccount(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, err := d.Dispatch(context.Background(), "u1", bank.Envelope{Intent: bank.IntentGetBalance, AccountID: "nope"}, "")
	require.NoError(t, err)
	require.NotNil(t, reply.Result)
	assert.Equal(t, bank.ResultNotice, reply.Result.Kind)
	assert.Equal(t, "Account not found.", reply.Result.Message)
}

func TestDispatchTransactions(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, err := d.Dispatch(context.Background(), "u1", bank.Envelope{Intent: bank.IntentGetTransactions, AccountID: "a1"}, "")
	require.NoError(t, err)
	require.NotNil(t, reply.Result)
	assert.Equal(t, bank.ResultEntries, reply.Result.Kind)
	assert.Equal(t, bank.EntriesTransactions, reply.Result.EntryKind)
	require.Len(t, reply.Result.Entries, 2)
	assert.Equal(t, "Salary credit", reply.Result.Entries[0].Description)
}

func TestDispatchTransactionsEmpty(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, err := d.Dispatch(context.Background(), "u2", bank.Envelope{Intent: bank.IntentGetTransactions}, "")
	require.NoError(t, err)
	require.NotNil(t, reply.Result)
	assert.Equal(t, bank.ResultNotice, reply.Result.Kind)
	assert.Equal(t, "No transactions found.", reply.Result.Message)
}

func TestDispatchChargesDisambiguates(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, err := d.Dispatch(context.Background(), "u1", bank.Envelope{Intent: bank.IntentGetCharges}, "")
	require.NoError(t, err)
	require.NotNil(t, reply.Directive)
	assert.Equal(t, bank.ActionSelectAccount, reply.Directive.Action)
	require.NotNil(t, reply.Directive.OriginalIntent)
	assert.Equal(t, bank.IntentGetCharges, reply.Directive.OriginalIntent.Intent)
}

func TestDispatchLoanPrograms(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, err := d.Dispatch(context.Background(), "u1", bank.Envelope{Intent: bank.IntentLoanPrograms}, "")
	require.NoError(t, err)
	require.NotNil(t, reply.Directive)
	assert.Equal(t, bank.ActionShowLoanPrograms, reply.Directive.Action)
	assert.Contains(t, reply.Directive.Programs, "personal_loan")
}

func TestApplyLoanWithoutTypeSelectsProgram(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, err := d.Dispatch(context.Background(), "u1", bank.Envelope{Intent: bank.IntentApplyLoan, Amount: 20000}, "")
	require.NoError(t, err)
	require.NotNil(t, reply.Directive)
	assert.Equal(t, bank.ActionSelectLoanProgram, reply.Directive.Action)
	assert.Contains(t, reply.Directive.Programs, "personal_loan")
}

func TestApplyLoanQuote(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, err := d.Dispatch(context.Background(), "u1", bank.Envelope{
		Intent:   bank.IntentApplyLoan,
		LoanType: "personal_loan",
		Amount:   50000,
	}, "")
	require.NoError(t, err)
	require.NotNil(t, reply.Directive)
	dir := reply.Directive
	assert.Equal(t, bank.ActionConfirmLoan, dir.Action)
	assert.Equal(t, "personal_loan", dir.LoanType)
	assert.Equal(t, float64(50000), dir.Amount)
	// 0.12 - (700-650)*0.0001 = 0.115
	assert.InDelta(t, 0.115, dir.InterestRate, 1e-9)
	assert.Equal(t, 0.12, dir.BaseRate)
	assert.Equal(t, 700, dir.UserScore)
	assert.Equal(t, 650, dir.MinScore)
}

func TestApplyLoanIneligible(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	cases := []struct {
		name string
		user string
		env  bank.Envelope
	}{
		{
			name: "score below floor",
			user: "u2",
			env:  bank.Envelope{Intent: bank.IntentApplyLoan, LoanType: "personal_loan", Amount: 10000},
		},
		{
			name: "amount above cap",
			user: "u1",
			env:  bank.Envelope{Intent: bank.IntentApplyLoan, LoanType: "personal_loan", Amount: 100001},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply, err := d.Dispatch(ctx, tc.user, tc.env, "")
			require.NoError(t, err)
			require.NotNil(t, reply.Result)
			assert.Equal(t, bank.ResultMessage, reply.Result.Kind)
			assert.Equal(t, bank.MsgIneligible, reply.Result.Message)
		})
	}
}

func TestApplyLoanBoundaryAmountIsEligible(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, err := d.Dispatch(context.Background(), "u1", bank.Envelope{
		Intent:   bank.IntentApplyLoan,
		LoanType: "personal_loan",
		Amount:   100000,
	}, "")
	require.NoError(t, err)
	require.NotNil(t, reply.Directive)
	assert.Equal(t, bank.ActionConfirmLoan, reply.Directive.Action)
}

func TestApplyLoanUnknownProgram(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, err := d.Dispatch(context.Background(), "u1", bank.Envelope{
		Intent:   bank.IntentApplyLoan,
		LoanType: "yacht_loan",
		Amount:   50000,
	}, "")
	require.NoError(t, err)
	require.NotNil(t, reply.Result)
	assert.Equal(t, bank.ResultNotice, reply.Result.Kind)
}

func TestConfirmLoanAppendsSequentialIDs(t *testing.T) {
	d, st, _ := newTestDispatcher(t)
	ctx := context.Background()
	env := bank.Envelope{
		Intent:       bank.IntentConfirmLoan,
		LoanType:     "personal_loan",
		Amount:       50000,
		InterestRate: 0.115,
	}

	first, err := d.Dispatch(ctx, "u1", env, "")
	require.NoError(t, err)
	require.NotNil(t, first.Result)
	assert.Equal(t, bank.ResultLoanApproved, first.Result.Kind)
	assert.Equal(t, "loan1", first.Result.LoanID)
	assert.Equal(t, bank.PaiseFromRupees(50000), first.Result.Amount)
	assert.InDelta(t, 0.115, first.Result.InterestRate, 1e-9)

	second, err := d.Dispatch(ctx, "u1", env, "")
	require.NoError(t, err)
	assert.Equal(t, "loan2", second.Result.LoanID)

	user, err := st.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, user.Profile.Loans, 2)
	for _, loan := range user.Profile.Loans {
		assert.Equal(t, bank.LoanApproved, loan.Status)
		assert.Equal(t, "personal_loan", loan.Type)
	}
}

func TestBlockCardDisambiguates(t *testing.T) {
	d, st, _ := newTestDispatcher(t)

	reply, err := d.Dispatch(context.Background(), "u1", bank.Envelope{Intent: bank.IntentBlockCard}, "")
	require.NoError(t, err)
	require.NotNil(t, reply.Directive)
	assert.Equal(t, bank.ActionSelectCard, reply.Directive.Action)
	require.Len(t, reply.Directive.Cards, 2)
	require.NotNil(t, reply.Directive.OriginalIntent)
	assert.Equal(t, bank.IntentBlockCard, reply.Directive.OriginalIntent.Intent)

	// Nothing was blocked by asking.
	user, err := st.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, bank.CardActive, user.Profile.Cards[0].Status)
	assert.Equal(t, bank.CardActive, user.Profile.Cards[1].Status)
}

func TestBlockCardSingleCardAsksConfirmation(t *testing.T) {
	d, st, _ := newTestDispatcher(t)

	reply, err := d.Dispatch(context.Background(), "u2", bank.Envelope{Intent: bank.IntentBlockCard}, "")
	require.NoError(t, err)
	require.NotNil(t, reply.Directive)
	assert.Equal(t, bank.ActionConfirmBlockCard, reply.Directive.Action)
	assert.Equal(t, "c9", reply.Directive.CardID)

	user, err := st.GetUser(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, bank.CardActive, user.Profile.Cards[0].Status)
}

func TestBlockCardNoCards(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, err := d.Dispatch(context.Background(), "u3", bank.Envelope{Intent: bank.IntentBlockCard}, "")
	require.NoError(t, err)
	require.NotNil(t, reply.Result)
	assert.Equal(t, bank.MsgNoCards, reply.Result.Message)
}

func TestConfirmBlockCardIdempotent(t *testing.T) {
	d, st, _ := newTestDispatcher(t)
	ctx := context.Background()
	env := bank.Envelope{Intent: bank.IntentConfirmBlock, CardID: "c9"}

	for i := 0; i < 2; i++ {
		reply, err := d.Dispatch(ctx, "u2", env, "")
		require.NoError(t, err)
		require.NotNil(t, reply.Result)
		assert.Equal(t, bank.ResultCardBlocked, reply.Result.Kind)
		assert.Equal(t, "c9", reply.Result.CardID)
	}

	user, err := st.GetUser(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, bank.CardBlocked, user.Profile.Cards[0].Status)
}

func TestConfirmBlockCardNotFound(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	reply, err := d.Dispatch(context.Background(), "u2", bank.Envelope{Intent: bank.IntentConfirmBlock, CardID: "ghost"}, "")
	require.NoError(t, err)
	require.NotNil(t, reply.Result)
	assert.Equal(t, bank.ResultNotice, reply.Result.Kind)
	assert.Equal(t, "Card not found.", reply.Result.Message)
}

// A directive's echoed original_intent merged with the client's choice must
// resolve exactly as if the choice had been supplied up front.
func TestDirectiveRoundTrip(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	first, err := d.Dispatch(ctx, "u1", bank.Envelope{Intent: bank.IntentGetBalance}, "")
	require.NoError(t, err)
	require.NotNil(t, first.Directive)

	continuation := *first.Directive.OriginalIntent
	continuation.AccountID = "a1"
	resumed, err := d.Dispatch(ctx, "u1", continuation, "")
	require.NoError(t, err)

	direct, err := d.Dispatch(ctx, "u1", bank.Envelope{Intent: bank.IntentGetBalance, AccountID: "a1"}, "")
	require.NoError(t, err)
	assert.Equal(t, direct, resumed)
	require.NotNil(t, resumed.Result)
	assert.Equal(t, bank.Paise(15230050), resumed.Result.Balance)
}

func TestUnknownUserEscalates(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), "nobody", bank.Envelope{Intent: bank.IntentGetBalance}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, bank.ErrNotFound)
}

func TestGeneralQuery(t *testing.T) {
	d, _, oracle := newTestDispatcher(t)
	oracle.answer = "A savings account earns interest on your deposits."

	reply, err := d.Dispatch(context.Background(), "u1", bank.Envelope{Intent: bank.IntentGeneralQuery}, "what is a savings account?")
	require.NoError(t, err)
	require.NotNil(t, reply.Result)
	assert.Equal(t, oracle.answer, reply.Result.Message)
}

func TestGeneralQueryBusyOracle(t *testing.T) {
	d, _, oracle := newTestDispatcher(t)
	oracle.answerErr = bank.ErrOracleBusy

	reply, err := d.Dispatch(context.Background(), "u1", bank.Envelope{Intent: bank.IntentGeneralQuery}, "question")
	require.NoError(t, err)
	require.NotNil(t, reply.Result)
	assert.Equal(t, bank.MsgBusy, reply.Result.Message)
}

func TestCannedReplies(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	cases := []struct {
		intent bank.Intent
		want   string
	}{
		{bank.IntentGreeting, bank.MsgGreeting},
		{bank.IntentCompliment, bank.MsgCompliment},
		{bank.IntentFeedback, bank.MsgFeedback},
		{bank.IntentUnsupported, bank.MsgUnsupported},
		{bank.Intent("fly_me_to_the_moon"), bank.MsgUnsupported},
	}
	for _, tc := range cases {
		t.Run(string(tc.intent), func(t *testing.T) {
			reply, err := d.Dispatch(ctx, "u1", bank.Envelope{Intent: tc.intent}, "")
			require.NoError(t, err)
			require.NotNil(t, reply.Result)
			assert.Equal(t, bank.ResultMessage, reply.Result.Kind)
			assert.Equal(t, tc.want, reply.Result.Message)
		})
	}
}
