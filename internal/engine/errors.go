package engine

import "fmt"

// ConcurrentUpdateError reports a learner write that kept losing its
// optimistic version check. Err is the last *store.ConflictError.
type ConcurrentUpdateError struct {
	LearnerID string
	Attempts  int
	Err       error
}

func (e *ConcurrentUpdateError) Error() string {
	return fmt.Sprintf("learner %s: concurrent update after %d attempts: %v", e.LearnerID, e.Attempts, e.Err)
}

func (e *ConcurrentUpdateError) Unwrap() error { return e.Err }

// TimeoutError reports a store call that exceeded the fetch timeout.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: store timeout: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
