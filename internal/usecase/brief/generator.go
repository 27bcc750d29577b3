// Package brief turns article bodies and title lists into short generated
// texts. It owns the retry policy around the text generation backend; the
// backend itself is reached through the Generator port.
package brief

import (
	"context"
	"errors"
	"strings"
)

// Generator is the text generation boundary. Implementations should report
// overload with an error matching ErrRateLimited and other failures with a
// *PermanentError, but any error is accepted and classified by Classify.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

var (
	// ErrRateLimited signals a transient overload; the call may be retried
	// after a cooldown.
	ErrRateLimited = errors.New("generation rate limited")

	// ErrMissingCredential is returned by generator factories when no API
	// key is configured.
	ErrMissingCredential = errors.New("generation credential missing")
)

// PermanentError is a generation failure that must not be retried.
type PermanentError struct {
	Detail string
	Err    error
}

func (e *PermanentError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "permanent generation error"
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Outcome is the classified result of one generation call.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeRateLimited
	OutcomePermanent
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Classify maps a raw generation error to an Outcome. Typed errors win;
// anything else is rate limited only when its text contains marker.
func Classify(err error, marker string) Outcome {
	if err == nil {
		return OutcomeOK
	}
	if errors.Is(err, ErrRateLimited) {
		return OutcomeRateLimited
	}
	var perm *PermanentError
	if errors.As(err, &perm) {
		return OutcomePermanent
	}
	if marker != "" && strings.Contains(err.Error(), marker) {
		return OutcomeRateLimited
	}
	return OutcomePermanent
}
