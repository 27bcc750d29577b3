package brief

import (
	"context"
	"unicode/utf8"
)

// Summarizer produces the three-line summary of one article body.
type Summarizer struct {
	policy    *Policy
	minLength int
	truncate  int
}

func NewSummarizer(policy *Policy, cfg Config) *Summarizer {
	return &Summarizer{policy: policy, minLength: cfg.MinLength, truncate: cfg.TruncateLength}
}

// Summarize returns the summary or a sentinel text. Bodies shorter than the
// minimum never reach the backend. Lengths count runes.
func (s *Summarizer) Summarize(ctx context.Context, fullText string) (string, error) {
	if fullText == "" || utf8.RuneCountInString(fullText) < s.minLength {
		return s.policy.messages.TooShort, nil
	}

	prompt, err := SummaryPrompt(truncateRunes(fullText, s.truncate))
	if err != nil {
		return "", err
	}
	return s.policy.Generate(ctx, prompt)
}

// Messages exposes the sentinel set so callers can tell them apart from
// generated text.
func (s *Summarizer) Messages() Messages { return s.policy.messages }

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
