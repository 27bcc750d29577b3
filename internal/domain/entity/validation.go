package entity

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
)

// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
const maxURLLength = 2048

// ValidateLink checks that link is an absolute http(s) URL with a host.
// It is purely syntactic; network-level checks belong to the fetcher.
func ValidateLink(link string) error {
	if link == "" {
		return &ValidationError{Field: "link", Message: "link is required"}
	}

	if len(link) > maxURLLength {
		return &ValidationError{
			Field:   "link",
			Message: fmt.Sprintf("link must not exceed %d characters", maxURLLength),
		}
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return &ValidationError{Field: "link", Message: err.Error()}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &ValidationError{Field: "link", Message: "link must use http or https scheme"}
	}

	if parsed.Host == "" {
		return &ValidationError{Field: "link", Message: "link must be absolute"}
	}

	return nil
}

// ValidateEmail accepts a bare address such as "reader@example.com".
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Message: "email must be a bare address"}
	}
	return nil
}
