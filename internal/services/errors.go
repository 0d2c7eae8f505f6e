package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound marks catalog lookups for records the catalog no
	// longer knows about.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks failures callers should retry on the next
	// attempt or poll cycle.
	ErrTransient = errors.New("transient failure")
)

// StatusError is returned for any non-2xx catalog response. Callers
// treat it as retryable unless the code says the record is gone.
type StatusError struct {
	Service string
	Code    int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.Service, e.Code)
}

// Unwrap classifies the status error so errors.Is works against the
// sentinels above: 404 means the catalog record vanished, everything
// else is transient.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrNotFound
	}
	return ErrTransient
}

// IsNotFound reports whether err represents a missing catalog record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransient reports whether err should be retried later.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
