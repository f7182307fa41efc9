package store

import (
	"context"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableNodes       = "skill_nodes"
	tableCompletions = "completions"
	tableStates      = "gamification_states"
	tableActivity    = "activity_log"
	tableStandings   = "league_standings"
	tableCalibration = "calibration_log"
	tableLLM         = "llm_requests"
)

var (
	nodesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "title", Type: field.TypeString},
		{Name: "subject", Type: field.TypeString},
		{Name: "grade", Type: field.TypeInt},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "xp_reward", Type: field.TypeInt},
		{Name: "gem_reward", Type: field.TypeInt},
		{Name: "prerequisites", Type: field.TypeString},
		{Name: "checkpoint", Type: field.TypeBool},
		{Name: "estimated_mins", Type: field.TypeInt},
		{Name: "active", Type: field.TypeBool},
		{Name: "kind", Type: field.TypeString},
		{Name: "content", Type: field.TypeString},
	}
	nodesTable = &schema.Table{
		Name:       tableNodes,
		Columns:    nodesColumns,
		PrimaryKey: []*schema.Column{nodesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "skillnode_subject_grade", Columns: []*schema.Column{nodesColumns[2], nodesColumns[3]}},
		},
	}

	completionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "node_id", Type: field.TypeString},
		{Name: "best_score", Type: field.TypeInt},
		{Name: "stars", Type: field.TypeInt},
		{Name: "attempts", Type: field.TypeInt},
		{Name: "time_spent_ns", Type: field.TypeInt64},
		{Name: "first_completed_at", Type: field.TypeString, Default: ""},
		{Name: "last_attempt_at", Type: field.TypeString},
	}
	completionsTable = &schema.Table{
		Name:       tableCompletions,
		Columns:    completionsColumns,
		PrimaryKey: []*schema.Column{completionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "completion_learner_node", Unique: true, Columns: []*schema.Column{completionsColumns[1], completionsColumns[2]}},
			{Name: "completion_node", Columns: []*schema.Column{completionsColumns[2]}},
		},
	}

	statesColumns = []*schema.Column{
		{Name: "learner_id", Type: field.TypeString, Unique: true},
		{Name: "timezone", Type: field.TypeString, Default: ""},
		{Name: "total_xp", Type: field.TypeInt},
		{Name: "gems", Type: field.TypeInt},
		{Name: "streak", Type: field.TypeInt},
		{Name: "longest_streak", Type: field.TypeInt},
		{Name: "last_activity", Type: field.TypeString, Default: ""},
		{Name: "league", Type: field.TypeString},
		{Name: "week_start", Type: field.TypeString, Default: ""},
		{Name: "weekly_xp", Type: field.TypeInt},
		{Name: "prev_week_start", Type: field.TypeString, Default: ""},
		{Name: "prev_weekly_xp", Type: field.TypeInt},
		{Name: "version", Type: field.TypeInt64},
	}
	statesTable = &schema.Table{
		Name:       tableStates,
		Columns:    statesColumns,
		PrimaryKey: []*schema.Column{statesColumns[0]},
	}

	activityColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "node_id", Type: field.TypeString},
		{Name: "subject", Type: field.TypeString},
		{Name: "score", Type: field.TypeInt},
		{Name: "xp", Type: field.TypeInt},
		{Name: "gems", Type: field.TypeInt},
		{Name: "at", Type: field.TypeString},
	}
	activityTable = &schema.Table{
		Name:       tableActivity,
		Columns:    activityColumns,
		PrimaryKey: []*schema.Column{activityColumns[0]},
		Indexes: []*schema.Index{
			{Name: "activity_learner_sequence", Columns: []*schema.Column{activityColumns[2], activityColumns[1]}},
		},
	}

	standingsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "week", Type: field.TypeString},
		{Name: "tier", Type: field.TypeString},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "rank", Type: field.TypeInt},
		{Name: "weekly_xp", Type: field.TypeInt},
		{Name: "trend", Type: field.TypeString},
		{Name: "move", Type: field.TypeString},
	}
	standingsTable = &schema.Table{
		Name:       tableStandings,
		Columns:    standingsColumns,
		PrimaryKey: []*schema.Column{standingsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "standing_week_learner", Unique: true, Columns: []*schema.Column{standingsColumns[1], standingsColumns[3]}},
		},
	}

	calibrationColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "run_id", Type: field.TypeString},
		{Name: "node_id", Type: field.TypeString},
		{Name: "from_difficulty", Type: field.TypeString},
		{Name: "to_difficulty", Type: field.TypeString},
		{Name: "from_xp", Type: field.TypeInt},
		{Name: "to_xp", Type: field.TypeInt},
		{Name: "from_gems", Type: field.TypeInt},
		{Name: "to_gems", Type: field.TypeInt},
		{Name: "rationale", Type: field.TypeString},
		{Name: "actor", Type: field.TypeString},
		{Name: "applied_at", Type: field.TypeString},
	}
	calibrationTable = &schema.Table{
		Name:       tableCalibration,
		Columns:    calibrationColumns,
		PrimaryKey: []*schema.Column{calibrationColumns[0]},
		Indexes: []*schema.Index{
			{Name: "calibration_node", Columns: []*schema.Column{calibrationColumns[2]}},
		},
	}

	llmColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeString},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Default: ""},
		{Name: "response_body", Type: field.TypeString, Default: ""},
	}
	llmTable = &schema.Table{
		Name:       tableLLM,
		Columns:    llmColumns,
		PrimaryKey: []*schema.Column{llmColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequest_purpose", Columns: []*schema.Column{llmColumns[5]}},
		},
	}

	tables = []*schema.Table{
		nodesTable,
		completionsTable,
		statesTable,
		activityTable,
		standingsTable,
		calibrationTable,
		llmTable,
	}
)

// migrate creates missing tables and indexes. Existing tables are extended,
// never dropped.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, tables...)
}

func columnNames(cols []*schema.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
