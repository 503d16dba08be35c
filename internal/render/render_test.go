package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vani-bank-backend/internal/bank"
)

func TestRupees(t *testing.T) {
	cases := []struct {
		in   bank.Paise
		want string
	}{
		{0, "₹0.00"},
		{2500, "₹25.00"},
		{12345, "₹123.45"},
		{15230050, "₹152,300.50"},
		{500000000, "₹5,000,000.00"},
		{-1234567, "-₹12,345.67"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Rupees(tc.in))
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "11.50%", Percent(0.115))
	assert.Equal(t, "12.00%", Percent(0.12))
}

func TestMessageBalanceWrapsHTML(t *testing.T) {
	msg, err := Message(bank.Reply{Result: &bank.Result{
		Kind:      bank.ResultBalance,
		AccountID: "acc1",
		Balance:   15230050,
	}})
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(msg), &payload))
	assert.Contains(t, payload["html"], "Account Balance")
	assert.Contains(t, payload["html"], "acc1")
	assert.Contains(t, payload["html"], "₹152,300.50")
}

func TestMessageEntriesTable(t *testing.T) {
	msg, err := Message(bank.Reply{Result: &bank.Result{
		Kind:      bank.ResultEntries,
		AccountID: "acc1",
		EntryKind: bank.EntriesCharges,
		Entries: []bank.Entry{
			{Date: "2025-08-02", Description: "Annual card fee", Amount: 49900},
		},
	}})
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(msg), &payload))
	assert.Contains(t, payload["html"], "Recent Charges for acc1")
	assert.Contains(t, payload["html"], "Annual card fee")
	assert.Contains(t, payload["html"], "₹499.00")
}

func TestMessageLoanApproved(t *testing.T) {
	msg, err := Message(bank.Reply{Result: &bank.Result{
		Kind:         bank.ResultLoanApproved,
		LoanID:       "loan1",
		Amount:       bank.PaiseFromRupees(50000),
		InterestRate: 0.115,
	}})
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(msg), &payload))
	assert.Contains(t, payload["html"], "Loan Approved!")
	assert.Contains(t, payload["html"], "₹50,000.00")
	assert.Contains(t, payload["html"], "11.50%")
	assert.Contains(t, payload["html"], "loan1")
}

func TestMessagePlainTextPassesThrough(t *testing.T) {
	msg, err := Message(bank.Reply{Result: &bank.Result{
		Kind:    bank.ResultMessage,
		Message: bank.MsgGreeting,
	}})
	require.NoError(t, err)
	assert.Equal(t, bank.MsgGreeting, msg)
}

func TestMessageNoticeWrapsParagraph(t *testing.T) {
	msg, err := Message(bank.Reply{Result: &bank.Result{
		Kind:    bank.ResultNotice,
		Message: "Account not found.",
	}})
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(msg), &payload))
	assert.Equal(t, "<p>Account not found.</p>", payload["html"])
}

func TestMessageDirective(t *testing.T) {
	orig := &bank.Envelope{Intent: bank.IntentGetBalance}
	msg, err := Message(bank.Reply{Directive: &bank.Directive{
		Action:         bank.ActionSelectAccount,
		Accounts:       []bank.Account{{ID: "acc1", Balance: 100}},
		OriginalIntent: orig,
	}})
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(msg), &payload))
	assert.Equal(t, bank.ActionSelectAccount, payload["action"])
	require.Contains(t, payload, "original_intent")
	oi := payload["original_intent"].(map[string]any)
	assert.Equal(t, "get_balance", oi["intent"])
}

func TestMessageEmptyReplyErrors(t *testing.T) {
	_, err := Message(bank.Reply{})
	assert.Error(t, err)
}
