package bank

import (
	"context"
	"errors"
)

// ErrOracleBusy reports provider-side rate limiting from the NLU oracle.
// The transport and dispatcher both map it to MsgBusy instead of retrying.
var ErrOracleBusy = errors.New("nlu oracle busy")

// Classification is the oracle's verdict on a raw turn: either a structured
// envelope, or raw text the client should see verbatim (the oracle answered
// the question directly instead of classifying it).
type Classification struct {
	Envelope *Envelope
	Text     string
}

// Oracle is the external NLU collaborator. Classify turns free text into an
// envelope; Answer handles general banking questions with the user's credit
// score as context. Neither is retried on failure.
type Oracle interface {
	Classify(ctx context.Context, text string) (Classification, error)
	Answer(ctx context.Context, creditScore int, question string) (string, error)
}
