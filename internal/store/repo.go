package store

import (
	"context"
	"time"

	"github.com/abhisek/skilltree/internal/gamify"
	"github.com/abhisek/skilltree/internal/progress"
	"github.com/abhisek/skilltree/internal/skillgraph"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// Activity is one applied attempt in the append-only activity log.
type Activity struct {
	ID        string
	Sequence  int64
	LearnerID string
	NodeID    string
	Subject   skillgraph.Subject
	Score     int
	XP        int
	Gems      int
	At        time.Time
}

// CalibrationLogEntry audits one applied calibration change.
type CalibrationLogEntry struct {
	ID             int
	RunID          string
	NodeID         string
	FromDifficulty skillgraph.Difficulty
	ToDifficulty   skillgraph.Difficulty
	FromXP         int
	ToXP           int
	FromGems       int
	ToGems         int
	Rationale      string
	Actor          string
	AppliedAt      time.Time
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	LLMRequestEventData
	ID        int
	Sequence  int64
	Timestamp time.Time
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)
}

// Repo is everything the engine reads and writes.
type Repo interface {
	EventRepo

	// Nodes returns stored nodes filtered by subject and grade; an empty
	// subject or zero grade matches everything.
	Nodes(ctx context.Context, subject skillgraph.Subject, grade int) ([]skillgraph.SkillNode, error)
	SaveNodes(ctx context.Context, nodes []skillgraph.SkillNode) error
	// UpdateNodeRewards rewrites a node's difficulty and rewards.
	UpdateNodeRewards(ctx context.Context, node skillgraph.SkillNode) error

	Completions(ctx context.Context, learnerID string) ([]progress.Record, error)
	Completion(ctx context.Context, learnerID, nodeID string) (progress.Record, bool, error)
	UpsertCompletion(ctx context.Context, rec progress.Record) error
	NodeCompletions(ctx context.Context, nodeID string) ([]progress.Record, error)

	GamificationState(ctx context.Context, learnerID string) (gamify.State, bool, error)
	// SaveGamificationState writes s if the stored version still equals
	// s.Version and returns s with its new version. A lost race returns a
	// *ConflictError.
	SaveGamificationState(ctx context.Context, s gamify.State) (gamify.State, error)
	AllStates(ctx context.Context) ([]gamify.State, error)

	AppendActivity(ctx context.Context, a Activity) (Activity, error)
	// RecentActivity returns a learner's latest entries, newest first.
	RecentActivity(ctx context.Context, learnerID string, limit int) ([]Activity, error)

	// SaveStandings replaces the standings of every week present in standings.
	SaveStandings(ctx context.Context, standings []gamify.Standing) error
	Standings(ctx context.Context, week string) ([]gamify.Standing, error)
	LatestStandingsWeek(ctx context.Context) (string, bool, error)

	AppendCalibrationLog(ctx context.Context, entries []CalibrationLogEntry) error
	CalibrationLog(ctx context.Context, nodeID string, limit int) ([]CalibrationLogEntry, error)
}

// TxRepo is a Repo that can group calls into one transaction.
type TxRepo interface {
	Repo
	InTx(ctx context.Context, fn func(Repo) error) error
}

var _ TxRepo = (*Store)(nil)
