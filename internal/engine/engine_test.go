package engine

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/skilltree/internal/cache"
	"github.com/abhisek/skilltree/internal/clock"
	"github.com/abhisek/skilltree/internal/gamify"
	"github.com/abhisek/skilltree/internal/identity"
	"github.com/abhisek/skilltree/internal/progress"
	"github.com/abhisek/skilltree/internal/skillgraph"
	"github.com/abhisek/skilltree/internal/store"
)

// day0 is a Monday.
var day0 = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

var teacher = identity.Principal{ID: "teacher-1", Role: identity.RoleTeacher}

func learnerP(id string) identity.Principal {
	return identity.Principal{ID: id, Role: identity.RoleLearner}
}

func quiz(id string, subject skillgraph.Subject, prereqs ...string) skillgraph.SkillNode {
	return skillgraph.SkillNode{
		ID:            id,
		Title:         "Node " + id,
		Subject:       subject,
		Grade:         3,
		Difficulty:    skillgraph.DifficultyMedium,
		XPReward:      100,
		GemReward:     10,
		Prerequisites: prereqs,
		Active:        true,
		Content:       skillgraph.Quiz{Questions: 5, HintsPerQuestion: 1},
	}
}

func attempt(learnerID, nodeID string, score int, at time.Time) progress.Attempt {
	return progress.Attempt{LearnerID: learnerID, NodeID: nodeID, Score: score, At: at, TimeSpent: 5 * time.Minute}
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "skilltree.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type fixture struct {
	eng   *Engine
	store *store.Store
	clock *clock.Fixed
}

func newFixture(t *testing.T, nodes ...skillgraph.SkillNode) fixture {
	t.Helper()
	s := openStore(t)
	if len(nodes) > 0 {
		require.NoError(t, s.SaveNodes(context.Background(), nodes))
	}
	clk := clock.NewFixed(day0)
	return fixture{eng: New(s, testOptions(clk)), store: s, clock: clk}
}

func testOptions(clk *clock.Fixed) Options {
	opts := DefaultOptions()
	opts.Clock = clk
	opts.Cache = cache.NewMemory(time.Hour, clk)
	return opts
}

func nodeIDs(nodes []skillgraph.SkillNode) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func (f fixture) record(t *testing.T, a progress.Attempt) Result {
	t.Helper()
	res, err := f.eng.RecordCompletion(context.Background(), learnerP(a.LearnerID), a)
	require.NoError(t, err)
	return res
}

func TestRecordCompletion_UnlockScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		quiz("a", "math"),
		quiz("b", "math", "a"),
		quiz("c", "math", "b"),
		quiz("r", "reading"),
	)

	unlocked, err := f.eng.Unlocked(ctx, "l1", "math", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, nodeIDs(unlocked))

	res := f.record(t, attempt("l1", "a", 75, day0))
	assert.Equal(t, []string{"b"}, nodeIDs(res.NewlyUnlocked))
	assert.Equal(t, 2, res.Record.Stars)
	assert.Equal(t, 70, res.Events.XPAwarded)
	assert.False(t, res.OutOfOrder)

	unlocked, err = f.eng.Unlocked(ctx, "l1", "math", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, nodeIDs(unlocked))

	res = f.record(t, attempt("l1", "b", 40, day0.Add(time.Hour)))
	assert.Empty(t, res.NewlyUnlocked)

	unlocked, err = f.eng.Unlocked(ctx, "l1", "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "r"}, nodeIDs(unlocked), "b is below mastery, so c stays locked")
}

func TestRecordCompletion_RepeatedScoreCountsOnce(t *testing.T) {
	f := newFixture(t, quiz("a", "math"))

	first := f.record(t, attempt("l1", "a", 80, day0))
	second := f.record(t, attempt("l1", "a", 80, day0.Add(time.Minute)))

	assert.Equal(t, 70, first.Events.XPAwarded)
	assert.Zero(t, second.Events.XPAwarded)
	assert.Zero(t, second.Events.GemsAwarded)
	assert.Equal(t, 70, second.State.TotalXP)
	assert.Equal(t, 2, second.Record.Attempts)
	assert.Equal(t, int64(2), second.State.Version)
}

func TestRecordCompletion_StreakLaw(t *testing.T) {
	f := newFixture(t, quiz("a", "math"))

	var res Result
	for d := range 3 {
		res = f.record(t, attempt("l1", "a", 70, day0.AddDate(0, 0, d)))
	}
	assert.Equal(t, 3, res.State.Streak)

	f.record(t, attempt("l2", "a", 70, day0))
	res = f.record(t, attempt("l2", "a", 70, day0.AddDate(0, 0, 2)))
	assert.Equal(t, 1, res.State.Streak)
	assert.True(t, res.Events.StreakBroken)
}

func TestRecordCompletion_OutOfOrder(t *testing.T) {
	f := newFixture(t, quiz("a", "math"), quiz("b", "math"))

	f.record(t, attempt("l1", "a", 70, day0.AddDate(0, 0, 1)))
	res := f.record(t, attempt("l1", "b", 95, day0))

	assert.True(t, res.OutOfOrder)
	assert.Equal(t, 100, res.Events.XPAwarded)
	assert.Equal(t, 1, res.State.Streak)
	assert.Equal(t, "2026-03-03", res.State.LastActivity)
}

func TestRecordCompletion_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiz("a", "math"))

	_, err := f.eng.RecordCompletion(ctx, learnerP("l1"), attempt("l1", "missing", 70, day0))
	var notFound *skillgraph.NodeNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.NodeID)

	_, err = f.eng.RecordCompletion(ctx, learnerP("l2"), attempt("l1", "a", 70, day0))
	var forbidden *identity.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	_, err = f.eng.RecordCompletion(ctx, learnerP("l1"), attempt("l1", "a", 101, day0))
	require.Error(t, err)

	_, err = f.eng.RecordCompletion(ctx, teacher, attempt("l1", "a", 70, day0))
	require.NoError(t, err)
}

func TestRecordCompletion_RejectsInactiveNode(t *testing.T) {
	ctx := context.Background()
	retired := quiz("old", "math")
	retired.Active = false
	f := newFixture(t, quiz("a", "math"), retired)

	_, err := f.eng.RecordCompletion(ctx, learnerP("l1"), attempt("l1", "old", 90, day0))
	var inactive *skillgraph.NodeInactiveError
	require.ErrorAs(t, err, &inactive)
	assert.Equal(t, "old", inactive.NodeID)

	records, err := f.store.Completions(ctx, "l1")
	require.NoError(t, err)
	assert.Empty(t, records)
	_, ok, err := f.store.GamificationState(ctx, "l1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordCompletion_ConcurrentWritersOneLearner(t *testing.T) {
	const writers = 32
	ctx := context.Background()
	nodes := make([]skillgraph.SkillNode, writers)
	for i := range nodes {
		nodes[i] = quiz(nodeName(i), "math")
	}
	f := newFixture(t, nodes...)

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			at := day0.Add(time.Duration(i) * time.Second)
			_, errs[i] = f.eng.RecordCompletion(ctx, learnerP("l1"), attempt("l1", nodeName(i), 100, at))
		}()
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "writer %d", i)
	}

	st, err := f.eng.State(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, writers*100, st.TotalXP)
	assert.Equal(t, writers*10, st.Gems)
	assert.Equal(t, writers*100, st.WeeklyXP)
	assert.Equal(t, int64(writers), st.Version)

	records, err := f.store.Completions(ctx, "l1")
	require.NoError(t, err)
	assert.Len(t, records, writers)
}

// conflictRepo makes the first conflicts state writes lose their version check.
type conflictRepo struct {
	store.TxRepo
	conflicts int
	saves     int
}

func (r *conflictRepo) InTx(ctx context.Context, fn func(store.Repo) error) error {
	return r.TxRepo.InTx(ctx, func(tx store.Repo) error {
		return fn(conflictTx{Repo: tx, parent: r})
	})
}

type conflictTx struct {
	store.Repo
	parent *conflictRepo
}

func (t conflictTx) SaveGamificationState(ctx context.Context, s gamify.State) (gamify.State, error) {
	t.parent.saves++
	if t.parent.conflicts > 0 {
		t.parent.conflicts--
		return gamify.State{}, &store.ConflictError{Table: "gamification_states", Key: s.LearnerID, Expected: s.Version}
	}
	return t.Repo.SaveGamificationState(ctx, s)
}

func TestRecordCompletion_RetriesConflicts(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.SaveNodes(ctx, []skillgraph.SkillNode{quiz("a", "math")}))
	repo := &conflictRepo{TxRepo: s, conflicts: 2}
	eng := New(repo, testOptions(clock.NewFixed(day0)))

	res, err := eng.RecordCompletion(ctx, learnerP("l1"), attempt("l1", "a", 75, day0))
	require.NoError(t, err)
	assert.Equal(t, 3, repo.saves)
	assert.Equal(t, int64(1), res.State.Version)

	recent, err := s.RecentActivity(ctx, "l1", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1, "losing attempts roll back their activity")
	rec, ok, err := s.Completion(ctx, "l1", "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, rec.Attempts)
}

func TestRecordCompletion_GivesUpAfterRetries(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.SaveNodes(ctx, []skillgraph.SkillNode{quiz("a", "math")}))
	repo := &conflictRepo{TxRepo: s, conflicts: 100}
	eng := New(repo, testOptions(clock.NewFixed(day0)))

	_, err := eng.RecordCompletion(ctx, learnerP("l1"), attempt("l1", "a", 75, day0))
	var concurrent *ConcurrentUpdateError
	require.ErrorAs(t, err, &concurrent)
	assert.Equal(t, 4, concurrent.Attempts)
	assert.Equal(t, "l1", concurrent.LearnerID)
	assert.ErrorIs(t, err, store.ErrConflict)

	_, ok, err := s.Completion(ctx, "l1", "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

type slowRepo struct {
	store.TxRepo
}

func (slowRepo) Nodes(ctx context.Context, _ skillgraph.Subject, _ int) ([]skillgraph.SkillNode, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestFetchTimeout(t *testing.T) {
	opts := testOptions(clock.NewFixed(day0))
	opts.Config.FetchTimeout = 20 * time.Millisecond
	eng := New(slowRepo{TxRepo: openStore(t)}, opts)

	_, err := eng.RecordCompletion(context.Background(), learnerP("l1"), attempt("l1", "a", 75, day0))
	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "load nodes", timeout.Op)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRecommend_WeakestSubjectFirst(t *testing.T) {
	ctx := context.Background()
	checkpoint := quiz("r2", "reading", "r0")
	checkpoint.Checkpoint = true
	f := newFixture(t,
		quiz("m0", "math"),
		quiz("m1", "math", "m0"),
		quiz("r0", "reading"),
		quiz("r1", "reading", "r0"),
		checkpoint,
	)
	f.record(t, attempt("l1", "m0", 95, day0))
	f.record(t, attempt("l1", "r0", 65, day0.Add(time.Minute)))

	recs, err := f.eng.Recommend(ctx, "l1", "", 0, 5)
	require.NoError(t, err)
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.Node.ID
	}
	assert.Equal(t, []string{"r2", "r1", "m1"}, ids)

	recs, err = f.eng.Recommend(ctx, "l1", "", 0, 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestUnlocked_ReportsDanglingPrerequisite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiz("a", "math"), quiz("z", "math", "ghost"))

	unlocked, err := f.eng.Unlocked(ctx, "l1", "", 0)
	var integrity *skillgraph.GraphIntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, []string{"a"}, nodeIDs(unlocked))

	recs, err := f.eng.Recommend(ctx, "l1", "", 0, 3)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0].Node.ID)
}

func TestState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiz("a", "math"))

	view, err := f.eng.State(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Level)
	assert.Equal(t, gamify.TierBronze, view.League)
	assert.Zero(t, view.TotalXP)

	f.record(t, attempt("l1", "a", 95, day0))
	view, err = f.eng.State(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, 100, view.TotalXP)
	assert.Equal(t, 2, view.Level)
	assert.Equal(t, 250, view.NextLevelAt)
	assert.Equal(t, 1, view.CurrentStreak)

	f.clock.Set(day0.AddDate(0, 0, 3))
	view, err = f.eng.State(ctx, "l1")
	require.NoError(t, err)
	assert.Zero(t, view.CurrentStreak)
}

func TestNodeMetrics_CacheInvalidatedOnCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiz("a", "math"))

	f.record(t, attempt("l1", "a", 75, day0))
	m, err := f.eng.NodeMetrics(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, m.UniqueStudents)

	// Written behind the engine's back, so the cached value stands.
	require.NoError(t, f.store.UpsertCompletion(ctx, progress.Record{
		LearnerID: "l2", NodeID: "a", BestScore: 50, Stars: 0, Attempts: 1, LastAttemptAt: day0,
	}))
	m, err = f.eng.NodeMetrics(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, m.UniqueStudents)

	f.record(t, attempt("l3", "a", 90, day0))
	m, err = f.eng.NodeMetrics(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, m.UniqueStudents)

	_, err = f.eng.NodeMetrics(ctx, "nope")
	var notFound *skillgraph.NodeNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCalibrate_DryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	var nodes []skillgraph.SkillNode
	for i := range 50 {
		nodes = append(nodes, quiz(nodeName(i), "math"))
	}
	f := newFixture(t, nodes...)
	for _, n := range nodes {
		for l := range 10 {
			require.NoError(t, f.store.UpsertCompletion(ctx, progress.Record{
				LearnerID:        nodeName(l),
				NodeID:           n.ID,
				BestScore:        95,
				Stars:            3,
				Attempts:         1,
				TimeSpent:        4 * time.Minute,
				FirstCompletedAt: day0,
				LastAttemptAt:    day0,
			}))
		}
	}
	snapshot := func() []byte {
		t.Helper()
		stored, err := f.store.Nodes(ctx, "", 0)
		require.NoError(t, err)
		var records []progress.Record
		for _, n := range stored {
			recs, err := f.store.NodeCompletions(ctx, n.ID)
			require.NoError(t, err)
			records = append(records, recs...)
		}
		data, err := json.Marshal(struct {
			Nodes   []skillgraph.SkillNode
			Records []progress.Record
		}{stored, records})
		require.NoError(t, err)
		return data
	}

	before := snapshot()
	run, err := f.eng.Calibrate(ctx, teacher, "math", 3, true)
	require.NoError(t, err)
	assert.Len(t, run.Report.Proposals, 50)
	assert.Empty(t, run.RunID)
	assert.Equal(t, before, snapshot())
	log, err := f.store.CalibrationLog(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, log)

	run, err = f.eng.Calibrate(ctx, teacher, "math", 3, false)
	require.NoError(t, err)
	require.NotEmpty(t, run.RunID)
	stored, err := f.store.Nodes(ctx, "math", 3)
	require.NoError(t, err)
	for _, n := range stored {
		assert.Equal(t, skillgraph.DifficultyEasy, n.Difficulty, n.ID)
		assert.Equal(t, 67, n.XPReward, n.ID)
	}
	log, err = f.store.CalibrationLog(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, log, 50)
	assert.Equal(t, run.RunID, log[0].RunID)
	assert.Equal(t, teacher.ID, log[0].Actor)
}

func nodeName(i int) string {
	return string(rune('a'+i/26)) + string(rune('a'+i%26))
}

func TestCalibrate_RequiresStaff(t *testing.T) {
	f := newFixture(t, quiz("a", "math"))
	_, err := f.eng.Calibrate(context.Background(), learnerP("l1"), "math", 3, true)
	var forbidden *identity.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
}

func TestRollover(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiz("a", "math"))
	f.record(t, attempt("l1", "a", 95, day0))
	f.record(t, attempt("l2", "a", 75, day0.AddDate(0, 0, 1)))
	f.record(t, attempt("l3", "a", 60, day0.AddDate(0, 0, 2)))

	f.clock.Set(day0.AddDate(0, 0, 7))
	res, err := f.eng.Rollover(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", res.Week)
	assert.False(t, res.AlreadyClosed)
	require.Len(t, res.Standings, 1)
	assert.Equal(t, gamify.TierBronze, res.Standings[0].Tier)
	require.Len(t, res.Standings[0].Entries, 3)
	assert.Equal(t, "l1", res.Standings[0].Entries[0].LearnerID)
	assert.Len(t, res.Changes, 3)

	view, err := f.eng.State(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, gamify.TierSilver, view.League)

	again, err := f.eng.Rollover(ctx, "2026-03-04")
	require.NoError(t, err)
	assert.True(t, again.AlreadyClosed)
	assert.Empty(t, again.Changes)

	week, standings, err := f.eng.Standings(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", week)
	require.Len(t, standings, 1)
	assert.Len(t, standings[0].Entries, 3)

	_, err = f.eng.Rollover(ctx, "not-a-date")
	assert.Error(t, err)
}

func TestStandings_NoneClosed(t *testing.T) {
	f := newFixture(t, quiz("a", "math"))
	week, standings, err := f.eng.Standings(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, week)
	assert.Empty(t, standings)
}

func TestLoadContent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.eng.LoadContent(ctx, teacher, []skillgraph.SkillNode{quiz("a", "math"), quiz("b", "math", "a")}))
	require.NoError(t, f.eng.LoadContent(ctx, teacher, []skillgraph.SkillNode{quiz("c", "math", "b")}))

	var integrity *skillgraph.GraphIntegrityError
	err := f.eng.LoadContent(ctx, teacher, []skillgraph.SkillNode{quiz("x", "math", "ghost")})
	require.ErrorAs(t, err, &integrity)

	err = f.eng.LoadContent(ctx, teacher, []skillgraph.SkillNode{quiz("a", "math", "c")})
	require.ErrorAs(t, err, &integrity)

	err = f.eng.LoadContent(ctx, learnerP("l1"), []skillgraph.SkillNode{quiz("d", "math")})
	var forbidden *identity.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	stored, err := f.eng.Nodes(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, nodeIDs(stored))
	a, _ := findNode(stored, "a")
	assert.Empty(t, a.Prerequisites)
}

func TestWithRetry_PassesThroughOtherErrors(t *testing.T) {
	eng := New(nil, testOptions(clock.NewFixed(day0)))
	boom := errors.New("boom")
	calls := 0
	err := eng.withRetry("l1", func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

// Auckland is UTC+13 in March.
func TestSetTimezone_StreakFollowsLearnerDays(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiz("a", "math"), quiz("b", "math"))

	st, err := f.eng.SetTimezone(ctx, learnerP("l1"), "l1", "Pacific/Auckland")
	require.NoError(t, err)
	assert.Equal(t, "Pacific/Auckland", st.Timezone)
	assert.Equal(t, int64(1), st.Version)

	lateEvening := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	pastMidnight := time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC)

	f.record(t, attempt("l1", "a", 70, lateEvening))
	res := f.record(t, attempt("l1", "b", 70, pastMidnight))
	assert.True(t, res.Events.StreakExtended)
	assert.Equal(t, 2, res.State.Streak)
	assert.Equal(t, "2026-03-03", res.State.LastActivity)

	// The same attempts fall on one UTC day.
	f.record(t, attempt("l2", "a", 70, lateEvening))
	res = f.record(t, attempt("l2", "b", 70, pastMidnight))
	assert.Equal(t, 1, res.State.Streak)
	assert.Equal(t, "2026-03-02", res.State.LastActivity)
}

func TestSetTimezone_KeepsLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiz("a", "math"))
	before := f.record(t, attempt("l1", "a", 95, day0)).State

	st, err := f.eng.SetTimezone(ctx, teacher, "l1", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", st.Timezone)
	assert.Equal(t, before.TotalXP, st.TotalXP)
	assert.Equal(t, before.Streak, st.Streak)
	assert.Equal(t, before.LastActivity, st.LastActivity)
	assert.Equal(t, before.Version+1, st.Version)

	view, err := f.eng.State(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", view.Timezone)
}

func TestSetTimezone_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiz("a", "math"))

	_, err := f.eng.SetTimezone(ctx, learnerP("l2"), "l1", "Europe/Paris")
	var forbidden *identity.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	var tzErr *gamify.InvalidTimezoneError
	_, err = f.eng.SetTimezone(ctx, learnerP("l1"), "l1", "Mars/Olympus_Mons")
	require.ErrorAs(t, err, &tzErr)
	_, err = f.eng.SetTimezone(ctx, learnerP("l1"), "l1", "")
	require.ErrorAs(t, err, &tzErr)

	_, ok, err := f.store.GamificationState(ctx, "l1")
	require.NoError(t, err)
	assert.False(t, ok)
}
