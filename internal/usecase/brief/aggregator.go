package brief

import "context"

// Aggregator writes the daily cross-article brief from a list of titles.
type Aggregator struct {
	policy *Policy
}

func NewAggregator(policy *Policy) *Aggregator {
	return &Aggregator{policy: policy}
}

// Aggregate returns the brief, or the not-enough-articles sentinel for an
// empty list without calling the backend.
func (a *Aggregator) Aggregate(ctx context.Context, titles []string) (string, error) {
	if len(titles) == 0 {
		return a.policy.messages.NotEnoughArticles, nil
	}
	prompt, err := InsightPrompt(titles)
	if err != nil {
		return "", err
	}
	return a.policy.Generate(ctx, prompt)
}
