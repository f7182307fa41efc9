package calibrate

import "fmt"

// InsufficientDataError means a node has too few learners for a
// recommendation. It is the defined "no recommendation" result.
type InsufficientDataError struct {
	NodeID   string
	Students int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("node %s: insufficient data (%d of %d students)", e.NodeID, e.Students, e.Required)
}
