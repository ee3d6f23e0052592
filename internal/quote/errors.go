package quote

import "errors"

var (
	// ErrNotFound means the upstream does not know the symbol.
	ErrNotFound = errors.New("symbol not found")

	// ErrRateLimited means the upstream rejected the request for rate
	// limiting reasons.
	ErrRateLimited = errors.New("rate limited by quote source")
)
