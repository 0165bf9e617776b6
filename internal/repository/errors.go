package repository

import "errors"

var (
	ErrFetchTimeout      = errors.New("fetch timed out")
	ErrContentRestricted = errors.New("content is restricted or requires authentication")
	ErrBadStatus         = errors.New("unexpected response status")
	ErrNotHTML           = errors.New("response is not an HTML document")
	ErrEmptyBody         = errors.New("response body is empty")
	ErrScanNotFound      = errors.New("scan not found")
)

// FailureReason maps a retrieval error to a short label used for metrics and
// fallback bookkeeping.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFetchTimeout):
		return "timeout"
	case errors.Is(err, ErrContentRestricted):
		return "restricted"
	case errors.Is(err, ErrBadStatus):
		return "bad_status"
	case errors.Is(err, ErrNotHTML):
		return "not_html"
	case errors.Is(err, ErrEmptyBody):
		return "empty_body"
	default:
		return "network"
	}
}
