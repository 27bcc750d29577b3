package brief

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

func render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := prompts.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return sb.String(), nil
}

// SummaryPrompt builds the three-line summary prompt for an already
// truncated body.
func SummaryPrompt(body string) (string, error) {
	return render("summary.tmpl", struct{ Body string }{body})
}

// InsightPrompt builds the daily brief prompt. Titles keep their order,
// one "- " line each.
func InsightPrompt(titles []string) (string, error) {
	clean := make([]string, len(titles))
	for i, t := range titles {
		// a title must stay on its own line
		clean[i] = strings.Join(strings.Fields(t), " ")
	}
	return render("insight.tmpl", struct{ Titles []string }{clean})
}
