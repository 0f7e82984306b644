package catalog

import "errors"

var (
	// ErrNotFound means an id is neither cached nor known to the remote API.
	ErrNotFound = errors.New("meal not found")

	// ErrCancelled means a run finished after its token was cancelled and
	// its result was discarded.
	ErrCancelled = errors.New("fetch cancelled; result discarded")
)
