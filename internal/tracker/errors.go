package tracker

import "errors"

var (
	// ErrQuotaExceeded: the requester already has the maximum number of
	// requests in flight.
	ErrQuotaExceeded = errors.New("request quota exceeded")
	// ErrInsufficientStorage: free space is below the admission floor.
	ErrInsufficientStorage = errors.New("insufficient storage for request")
	// ErrNoResults: the catalog search returned zero candidates.
	ErrNoResults = errors.New("no search results")
	// ErrStaleSelection: the record behind a selection callback no
	// longer exists or was already finalized. Callers report this as
	// "selection no longer available", never as a crash.
	ErrStaleSelection = errors.New("selection no longer available")
)
