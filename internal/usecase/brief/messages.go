package brief

// Messages are the fixed texts returned instead of generated output. They
// end up in persisted summaries and insights, so they are in the digest's
// language.
type Messages struct {
	MissingCredential string
	TooShort          string
	NotEnoughArticles string
	RetriesExhausted  string
	// EmptyResponse stands in for a reply with no text, such as a blocked
	// candidate.
	EmptyResponse string
	// FailurePrefix is prepended to the error detail of a permanent failure.
	FailurePrefix string
}

// DefaultMessages returns the Korean sentinel texts.
func DefaultMessages() Messages {
	return Messages{
		MissingCredential: "API Key 누락",
		TooShort:          "본문 내용이 너무 짧아 요약할 수 없습니다.",
		NotEnoughArticles: "분석할 기사가 충분하지 않습니다.",
		RetriesExhausted:  "요약 실패 (재시도 초과)",
		EmptyResponse:     "요약 실패 (빈 응답)",
		FailurePrefix:     "에러 발생: ",
	}
}

// IsSentinel reports whether s is one of the fixed texts or a formatted
// permanent failure.
func (m Messages) IsSentinel(s string) bool {
	switch s {
	case m.MissingCredential, m.TooShort, m.NotEnoughArticles, m.RetriesExhausted, m.EmptyResponse:
		return true
	}
	return m.FailurePrefix != "" && len(s) >= len(m.FailurePrefix) && s[:len(m.FailurePrefix)] == m.FailurePrefix
}
