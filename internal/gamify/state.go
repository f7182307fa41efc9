package gamify

import (
	"errors"
	"time"
)

// DateLayout is the calendar-date format used for activity and week keys.
const DateLayout = "2006-01-02"

// State is a learner's gamification ledger. Level is never stored; it is
// always derived from TotalXP.
type State struct {
	LearnerID     string
	Timezone      string // IANA name; empty means UTC
	TotalXP       int
	Gems          int
	Streak        int
	LongestStreak int
	LastActivity  string // learner-local date of the latest activity, empty if none
	League        Tier
	WeekStart     string // Monday of the week WeeklyXP belongs to
	WeeklyXP      int
	PrevWeekStart string
	PrevWeeklyXP  int
	Version       int64
}

// NewState returns the initial state for a learner.
func NewState(learnerID, timezone string) State {
	return State{LearnerID: learnerID, Timezone: timezone, League: TierBronze}
}

// Level returns the learner's level under table.
func (s State) Level(table LevelTable) int {
	return table.Level(s.TotalXP)
}

// Tier returns the learner's league tier, bronze when unset.
func (s State) Tier() Tier {
	if s.League == "" {
		return TierBronze
	}
	return s.League
}

// Location resolves the learner's timezone.
func (s State) Location() (*time.Location, error) {
	return loadLocation(s.Timezone)
}

// CurrentStreak returns the streak as seen at now: the stored streak while
// the learner was active today or yesterday, otherwise 0.
func (s State) CurrentStreak(now time.Time) int {
	if s.LastActivity == "" {
		return 0
	}
	loc, err := s.Location()
	if err != nil {
		return 0
	}
	gap, err := daysBetween(s.LastActivity, now.In(loc).Format(DateLayout))
	if err != nil || gap > 1 {
		return 0
	}
	return s.Streak
}

// WeeklyXPFor returns the XP the learner earned in the week starting week.
func (s State) WeeklyXPFor(week string) int {
	switch week {
	case s.WeekStart:
		return s.WeeklyXP
	case s.PrevWeekStart:
		return s.PrevWeeklyXP
	default:
		return 0
	}
}

// WeekStart returns the Monday of t's week in loc as a date string.
func WeekStart(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	offset := (int(local.Weekday()) + 6) % 7
	y, m, d := local.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, loc).Format(DateLayout)
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &InvalidTimezoneError{Timezone: name, Err: err}
	}
	return loc, nil
}

// ValidateTimezone checks that name is an IANA zone the process can load.
// The empty name is rejected; UTC must be spelled out.
func ValidateTimezone(name string) error {
	if name == "" {
		return &InvalidTimezoneError{Timezone: name, Err: errors.New("empty name")}
	}
	_, err := loadLocation(name)
	return err
}

// daysBetween returns the number of calendar days from a to b.
func daysBetween(a, b string) (int, error) {
	da, err := time.Parse(DateLayout, a)
	if err != nil {
		return 0, err
	}
	db, err := time.Parse(DateLayout, b)
	if err != nil {
		return 0, err
	}
	return int(db.Sub(da).Hours() / 24), nil
}
