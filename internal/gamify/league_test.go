package gamify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	lastWeek = "2026-02-23"
	thisWeek = "2026-03-02"
)

func member(id string, tier Tier, xp int) State {
	return State{LearnerID: id, League: tier, WeekStart: thisWeek, WeeklyXP: xp}
}

func entryByID(st Standing) map[string]StandingEntry {
	out := make(map[string]StandingEntry, len(st.Entries))
	for _, e := range st.Entries {
		out[e.LearnerID] = e
	}
	return out
}

func TestRollover_PromoteDemoteAndTrend(t *testing.T) {
	states := []State{
		member("a", TierSilver, 70),
		member("b", TierSilver, 60),
		member("c", TierSilver, 50),
		member("d", TierSilver, 40),
		member("e", TierSilver, 30),
		member("f", TierSilver, 20),
		member("g", TierSilver, 10),
	}
	previous := []Standing{
		{Week: lastWeek, Tier: TierSilver, Entries: []StandingEntry{
			{LearnerID: "d", Rank: 1},
			{LearnerID: "a", Rank: 3},
			{LearnerID: "c", Rank: 3},
		}},
		{Week: lastWeek, Tier: TierBronze, Entries: []StandingEntry{
			{LearnerID: "b", Rank: 1},
		}},
	}

	standings, changes := Rollover(states, thisWeek, previous, LeagueConfig{PromoteCount: 2, DemoteCount: 2})
	require.Len(t, standings, 1)
	st := standings[0]
	assert.Equal(t, TierSilver, st.Tier)
	assert.Equal(t, thisWeek, st.Week)

	byID := entryByID(st)
	assert.Equal(t, MovePromoted, byID["a"].Move)
	assert.Equal(t, MovePromoted, byID["b"].Move)
	assert.Equal(t, MoveStayed, byID["c"].Move)
	assert.Equal(t, MoveStayed, byID["e"].Move)
	assert.Equal(t, MoveDemoted, byID["f"].Move)
	assert.Equal(t, MoveDemoted, byID["g"].Move)

	assert.Equal(t, TrendUp, byID["a"].Trend)
	assert.Equal(t, TrendUp, byID["b"].Trend, "moved up from bronze")
	assert.Equal(t, TrendSame, byID["c"].Trend)
	assert.Equal(t, TrendDown, byID["d"].Trend)
	assert.Equal(t, TrendNew, byID["e"].Trend)

	assert.Equal(t, []TierChange{
		{LearnerID: "a", From: TierSilver, To: TierGold},
		{LearnerID: "b", From: TierSilver, To: TierGold},
		{LearnerID: "f", From: TierSilver, To: TierBronze},
		{LearnerID: "g", From: TierSilver, To: TierBronze},
	}, changes)
}

func TestRollover_Boundaries(t *testing.T) {
	states := []State{
		member("idle", TierBronze, 0),
		member("y", TierGold, 10),
		member("z", TierGold, 0),
		member("q", TierQuantum, 500),
		member("br", TierBronze, 5),
		// Already rolled into the following week; last week's XP is in Prev*.
		{LearnerID: "p", League: TierGold, WeekStart: "2026-03-09", WeeklyXP: 5, PrevWeekStart: thisWeek, PrevWeeklyXP: 40},
	}

	standings, changes := Rollover(states, thisWeek, nil, DefaultConfig().League)

	tiers := make([]Tier, len(standings))
	for i, st := range standings {
		tiers[i] = st.Tier
	}
	assert.Equal(t, []Tier{TierBronze, TierGold, TierQuantum}, tiers)

	bronze := entryByID(standings[0])
	assert.NotContains(t, bronze, "idle")
	assert.Equal(t, MovePromoted, bronze["br"].Move)

	gold := entryByID(standings[1])
	assert.Equal(t, 1, gold["p"].Rank)
	assert.Equal(t, 40, gold["p"].WeeklyXP)
	assert.Equal(t, MovePromoted, gold["y"].Move)
	assert.Equal(t, MoveDemoted, gold["z"].Move, "no XP above bronze always demotes")

	quantum := entryByID(standings[2])
	assert.Equal(t, MoveStayed, quantum["q"].Move)
	assert.Equal(t, TrendNew, quantum["q"].Trend)

	assert.Equal(t, []TierChange{
		{LearnerID: "br", From: TierBronze, To: TierSilver},
		{LearnerID: "p", From: TierGold, To: TierSapphire},
		{LearnerID: "y", From: TierGold, To: TierSapphire},
		{LearnerID: "z", From: TierGold, To: TierSilver},
	}, changes)
}

func TestTierNavigation(t *testing.T) {
	up, ok := TierBronze.Up()
	assert.True(t, ok)
	assert.Equal(t, TierSilver, up)

	_, ok = TierQuantum.Up()
	assert.False(t, ok)

	_, ok = TierBronze.Down()
	assert.False(t, ok)

	_, err := ParseTier("platinum")
	assert.Error(t, err)
}
