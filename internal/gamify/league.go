package gamify

import (
	"fmt"
	"sort"
)

// Tier is a weekly league cohort.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierSapphire Tier = "sapphire"
	TierRuby     Tier = "ruby"
	TierEmerald  Tier = "emerald"
	TierDiamond  Tier = "diamond"
	TierQuantum  Tier = "quantum"
)

// AllTiers returns the tiers from lowest to highest.
func AllTiers() []Tier {
	return []Tier{TierBronze, TierSilver, TierGold, TierSapphire, TierRuby, TierEmerald, TierDiamond, TierQuantum}
}

// ParseTier converts a string to a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if t.Rank() < 0 {
		return "", fmt.Errorf("unknown league tier %q", s)
	}
	return t, nil
}

// Rank returns the tier's position (bronze=0), or -1 if unknown.
func (t Tier) Rank() int {
	for i, tier := range AllTiers() {
		if tier == t {
			return i
		}
	}
	return -1
}

// Up returns the next tier and true, or t and false at the top.
func (t Tier) Up() (Tier, bool) {
	all := AllTiers()
	r := t.Rank()
	if r < 0 || r == len(all)-1 {
		return t, false
	}
	return all[r+1], true
}

// Down returns the previous tier and true, or t and false at the bottom.
func (t Tier) Down() (Tier, bool) {
	r := t.Rank()
	if r <= 0 {
		return t, false
	}
	return AllTiers()[r-1], true
}

// Trend compares a learner's standing with the previous week.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendSame Trend = "same"
	TrendNew  Trend = "new"
)

// Move is the tier transition decided at rollover.
type Move string

const (
	MovePromoted Move = "promoted"
	MoveDemoted  Move = "demoted"
	MoveStayed   Move = "stayed"
)

// Standing is the ranked snapshot of one tier for one week.
type Standing struct {
	Week    string
	Tier    Tier
	Entries []StandingEntry
}

// StandingEntry is one learner's place in a Standing.
type StandingEntry struct {
	LearnerID string
	Rank      int
	WeeklyXP  int
	Trend     Trend
	Move      Move
}

// TierChange is a promotion or demotion to persist on the learner's state.
type TierChange struct {
	LearnerID string
	From      Tier
	To        Tier
}

// Rollover closes the league week starting week. Each tier is ranked by the
// XP its members earned that week (ties by learner ID). The top
// PromoteCount members with XP move up a tier; the bottom DemoteCount
// members outside the promotion zone move down, as does every member above
// bronze who earned nothing. Trend compares each rank with previous, the
// prior week's standings.
//
// Bronze learners with no XP that week are left out of the standings.
// Rollover is pure; the caller persists standings and tier changes.
func Rollover(states []State, week string, previous []Standing, cfg LeagueConfig) ([]Standing, []TierChange) {
	type prevPlace struct {
		tier Tier
		rank int
	}
	prev := make(map[string]prevPlace)
	for _, st := range previous {
		for _, e := range st.Entries {
			prev[e.LearnerID] = prevPlace{tier: st.Tier, rank: e.Rank}
		}
	}

	byTier := make(map[Tier][]StandingEntry)
	for _, s := range states {
		xp := s.WeeklyXPFor(week)
		tier := s.Tier()
		if tier == TierBronze && xp == 0 {
			continue
		}
		byTier[tier] = append(byTier[tier], StandingEntry{LearnerID: s.LearnerID, WeeklyXP: xp})
	}

	var standings []Standing
	var changes []TierChange
	for _, tier := range AllTiers() {
		entries := byTier[tier]
		if len(entries) == 0 {
			continue
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].WeeklyXP != entries[j].WeeklyXP {
				return entries[i].WeeklyXP > entries[j].WeeklyXP
			}
			return entries[i].LearnerID < entries[j].LearnerID
		})

		n := len(entries)
		for i := range entries {
			e := &entries[i]
			e.Rank = i + 1
			e.Move = MoveStayed

			up, canUp := tier.Up()
			down, canDown := tier.Down()
			switch {
			case canUp && e.Rank <= cfg.PromoteCount && e.WeeklyXP > 0:
				e.Move = MovePromoted
				changes = append(changes, TierChange{LearnerID: e.LearnerID, From: tier, To: up})
			case canDown && (e.WeeklyXP == 0 || (e.Rank > n-cfg.DemoteCount && e.Rank > cfg.PromoteCount)):
				e.Move = MoveDemoted
				changes = append(changes, TierChange{LearnerID: e.LearnerID, From: tier, To: down})
			}

			p, ok := prev[e.LearnerID]
			switch {
			case !ok:
				e.Trend = TrendNew
			case tier.Rank() > p.tier.Rank():
				e.Trend = TrendUp
			case tier.Rank() < p.tier.Rank():
				e.Trend = TrendDown
			case e.Rank < p.rank:
				e.Trend = TrendUp
			case e.Rank > p.rank:
				e.Trend = TrendDown
			default:
				e.Trend = TrendSame
			}
		}
		standings = append(standings, Standing{Week: week, Tier: tier, Entries: entries})
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].LearnerID < changes[j].LearnerID })
	return standings, changes
}
