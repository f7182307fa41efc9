package gamify

import (
	"math"
	"time"
)

// Award is what a completion is worth. PriorStars is the learner's best on
// the node before this attempt and NewStars the best after it, so repeating
// an equal or lower score earns nothing.
type Award struct {
	NodeID     string
	XPReward   int
	GemReward  int
	PriorStars int
	NewStars   int
}

// Events describes what changed in one Apply call.
type Events struct {
	XPAwarded       int
	GemsAwarded     int
	LeveledUp       bool
	FromLevel       int
	ToLevel         int
	StreakExtended  bool
	StreakBroken    bool
	StreakMilestone int // milestone reached, 0 if none
}

// XP returns the XP the award is worth under cfg.
func (a Award) XP(cfg Config) int {
	return scaledDelta(a.XPReward, a.PriorStars, a.NewStars, cfg.StarScale)
}

// Gems returns the gems the award is worth under cfg.
func (a Award) Gems(cfg Config) int {
	return scaledDelta(a.GemReward, a.PriorStars, a.NewStars, cfg.StarScale)
}

func scaledDelta(reward, prior, next int, scale [4]float64) int {
	at := func(stars int) int {
		stars = min(max(stars, 0), 3)
		return int(math.Round(float64(reward) * scale[stars]))
	}
	return max(at(next)-at(prior), 0)
}

// Apply returns state with the award applied at time at. It is pure: the
// input state is not modified and nothing is persisted.
//
// XP and gems are always applied and accumulate into the weekly total of
// the event's league week. The streak follows the learner's calendar: same
// day leaves it alone, the next day extends it, a longer gap resets it to 1.
// An event whose calendar day is before LastActivity leaves the streak
// untouched and Apply returns the updated state together with an
// *OutOfOrderEventError. Ordering is by day only: an event stamped earlier
// than a previous one on the same day is not out of order, since it could
// not change the streak either way.
//
// League tiers never change here; see Rollover.
func Apply(state State, award Award, at time.Time, cfg Config) (State, Events, error) {
	loc, err := state.Location()
	if err != nil {
		return state, Events{}, err
	}
	leagueLoc, err := loadLocation(cfg.LeagueTimezone)
	if err != nil {
		return state, Events{}, err
	}

	next := state
	if next.League == "" {
		next.League = TierBronze
	}
	ev := Events{
		XPAwarded:   award.XP(cfg),
		GemsAwarded: award.Gems(cfg),
		FromLevel:   cfg.Levels.Level(state.TotalXP),
	}

	addWeeklyXP(&next, WeekStart(at, leagueLoc), ev.XPAwarded)

	day := at.In(loc).Format(DateLayout)
	var outOfOrder error
	if next.LastActivity == "" {
		next.Streak = 1
		next.LastActivity = day
		ev.StreakExtended = true
	} else {
		gap, err := daysBetween(next.LastActivity, day)
		if err != nil {
			return state, Events{}, err
		}
		switch {
		case gap == 0:
		case gap == 1:
			next.Streak++
			next.LastActivity = day
			ev.StreakExtended = true
		case gap > 1:
			ev.StreakBroken = next.Streak > 0
			next.Streak = 1
			next.LastActivity = day
		default:
			outOfOrder = &OutOfOrderEventError{
				LearnerID:    state.LearnerID,
				EventDate:    day,
				LastActivity: state.LastActivity,
			}
		}
	}
	if next.Streak > next.LongestStreak {
		next.LongestStreak = next.Streak
	}
	if ev.StreakExtended {
		if bonus := MilestoneGems(next.Streak); bonus > 0 {
			ev.StreakMilestone = next.Streak
			ev.GemsAwarded += bonus
		}
	}

	next.TotalXP += ev.XPAwarded
	next.Gems += ev.GemsAwarded
	ev.ToLevel = cfg.Levels.Level(next.TotalXP)
	ev.LeveledUp = ev.ToLevel > ev.FromLevel

	return next, ev, outOfOrder
}

// addWeeklyXP rolls the weekly counters forward when week is newer than
// WeekStart and credits xp to the matching week. XP dated in a week older
// than both tracked weeks only counts toward TotalXP.
func addWeeklyXP(s *State, week string, xp int) {
	switch {
	case week == s.WeekStart:
		s.WeeklyXP += xp
	case s.WeekStart == "" || week > s.WeekStart:
		if s.WeekStart != "" {
			s.PrevWeekStart = s.WeekStart
			s.PrevWeeklyXP = s.WeeklyXP
		}
		s.WeekStart = week
		s.WeeklyXP = xp
	case week == s.PrevWeekStart:
		s.PrevWeeklyXP += xp
	}
}
