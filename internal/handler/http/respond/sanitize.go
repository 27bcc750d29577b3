package respond

import "regexp"

var (
	// applied in order, most specific first
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)
	geminiKeyPattern    = regexp.MustCompile(`AIza[0-9A-Za-z_-]{20,}`)
	queryKeyPattern     = regexp.MustCompile(`([?&]key=)[^&\s"]+`)
	dsnPasswordPattern  = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)
)

// SanitizeError renders err with API keys and DSN passwords masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = geminiKeyPattern.ReplaceAllString(msg, "AIza****")
	msg = queryKeyPattern.ReplaceAllString(msg, "${1}****")
	msg = dsnPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
