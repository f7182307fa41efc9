package gamify

import "fmt"

// OutOfOrderEventError reports an event dated before the learner's last
// activity. The XP and gems of the event were still applied; only the
// streak was left untouched. It is returned together with a valid state.
type OutOfOrderEventError struct {
	LearnerID    string
	EventDate    string
	LastActivity string
}

func (e *OutOfOrderEventError) Error() string {
	return fmt.Sprintf("learner %s: event dated %s precedes last activity %s; streak unchanged",
		e.LearnerID, e.EventDate, e.LastActivity)
}

// InvalidTimezoneError reports a timezone name the zone database does not know.
type InvalidTimezoneError struct {
	Timezone string
	Err      error
}

func (e *InvalidTimezoneError) Error() string {
	return fmt.Sprintf("timezone %q: %v", e.Timezone, e.Err)
}

func (e *InvalidTimezoneError) Unwrap() error { return e.Err }
