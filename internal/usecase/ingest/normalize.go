package ingest

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeText applies NFC and collapses whitespace runs. Scraped Korean
// titles sometimes arrive decomposed, which would defeat exact comparison
// downstream.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// normalize cleans a candidate in place and trims the link.
func normalize(c Candidate) Candidate {
	return Candidate{
		Link:  strings.TrimSpace(c.Link),
		Title: normalizeText(c.Title),
		Lede:  normalizeText(c.Lede),
	}
}
