package store

import (
	"errors"
	"fmt"
)

// ErrConflict tags every optimistic concurrency failure.
var ErrConflict = errors.New("store conflict")

// ConflictError reports a versioned write that lost its race: the row was
// changed (or created) by someone else after it was read.
type ConflictError struct {
	Table    string
	Key      string
	Expected int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: version %d is stale", e.Table, e.Key, e.Expected)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
