// Package render turns dispatcher replies into the wire payloads the client
// displays. It owns all markup and currency formatting; the dispatcher only
// ever emits structured data.
package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"vani-bank-backend/internal/bank"
)

// Message renders a reply to the string sent inside the turn response:
// directives and card-style results marshal to JSON objects, plain
// conversational results stay plain text.
func Message(reply bank.Reply) (string, error) {
	if reply.Directive != nil {
		b, err := json.Marshal(reply.Directive)
		if err != nil {
			return "", fmt.Errorf("encode directive: %w", err)
		}
		return string(b), nil
	}
	if reply.Result == nil {
		return "", fmt.Errorf("empty reply")
	}

	r := reply.Result
	if r.Kind == bank.ResultMessage {
		return r.Message, nil
	}

	html, err := HTML(*r)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(map[string]string{"html": html})
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(b), nil
}

// HTML renders a terminal result as a display fragment.
func HTML(r bank.Result) (string, error) {
	switch r.Kind {
	case bank.ResultBalance:
		return fmt.Sprintf(`<div class="info-card">
<h4>Account Balance</h4>
<p>Account ID: %s</p>
<p class="balance">%s</p>
</div>`, r.AccountID, Rupees(r.Balance)), nil
	case bank.ResultEntries:
		return entriesTable(r), nil
	case bank.ResultLoanApproved:
		return fmt.Sprintf(`<div class="info-card">
<h4>Loan Approved!</h4>
<p>Your loan for <strong>%s</strong> has been approved.</p>
<p>Interest Rate: <strong>%s</strong></p>
<p>Application ID: <strong>%s</strong></p>
</div>`, Rupees(r.Amount), Percent(r.InterestRate), r.LoanID), nil
	case bank.ResultCardBlocked:
		return fmt.Sprintf(`<div class="info-card">
<h4>Card Blocked</h4>
<p>The card <strong>%s</strong> has been successfully blocked.</p>
</div>`, r.CardID), nil
	case bank.ResultNotice:
		return fmt.Sprintf("<p>%s</p>", r.Message), nil
	default:
		return "", fmt.Errorf("unrenderable result kind %q", r.Kind)
	}
}

func entriesTable(r bank.Result) string {
	title := "Recent Transactions"
	if r.EntryKind == bank.EntriesCharges {
		title = "Recent Charges"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<h4>%s for %s</h4>", title, r.AccountID)
	b.WriteString("<table><thead><tr><th>Date</th><th>Description</th><th>Amount</th></tr></thead><tbody>")
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>", e.Date, e.Description, Rupees(e.Amount))
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

// Rupees formats a fixed-point amount as "₹1,234.56".
func Rupees(p bank.Paise) string {
	s := strconv.FormatFloat(p.Rupees(), 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("₹")
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// Percent formats a rate like 0.115 as "11.50%".
func Percent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}
