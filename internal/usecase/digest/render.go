package digest

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var digestTemplate = template.Must(template.New("digest.html").ParseFS(templateFS, "templates/digest.html"))

// DateLayout renders the digest date, e.g. 2026년 10월 18일.
const DateLayout = "2006년 01월 02일"

type articleView struct {
	Title   string
	Link    string
	Summary []string
}

type digestView struct {
	Subject  string
	Date     string
	Insight  []string
	Articles []articleView
}

// Render produces the newsletter HTML.
func Render(d *Digest) (string, error) {
	view := digestView{
		Subject: d.Subject,
		Date:    d.Day.Format(DateLayout),
		Insight: lines(d.Insight),
	}
	for _, a := range d.Articles {
		v := articleView{Title: a.Title, Link: a.Link}
		if a.Summary != nil {
			v.Summary = lines(*a.Summary)
		}
		view.Articles = append(view.Articles, v)
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

// lines splits generated text into its non-blank lines.
func lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
