package fetcher

import "errors"

var (
	// ErrInvalidURL is returned for unparsable links or non-http(s) schemes.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrPrivateIP is returned when a host resolves to a loopback, private
	// or link-local address and private addresses are denied.
	ErrPrivateIP = errors.New("URL resolves to private IP address")

	ErrBodyTooLarge     = errors.New("response body exceeds size limit")
	ErrTimeout          = errors.New("request timed out")
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrReadabilityFailed is returned when the readability fallback finds
	// no readable text.
	ErrReadabilityFailed = errors.New("readability extraction failed")
)
