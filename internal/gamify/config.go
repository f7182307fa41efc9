package gamify

// Config holds the reward, level and league constants of the ledger.
type Config struct {
	// StarScale is the fraction of a node's reward earned at 0..3 stars.
	StarScale [4]float64 `yaml:"star_scale"`

	Levels LevelTable `yaml:"levels"`

	// LeagueTimezone decides where league weeks begin (Monday 00:00).
	LeagueTimezone string `yaml:"league_timezone" validate:"required"`

	League LeagueConfig `yaml:"league"`
}

// LeagueConfig controls weekly promotion and demotion.
type LeagueConfig struct {
	PromoteCount int `yaml:"promote_count" validate:"gte=0"`
	DemoteCount  int `yaml:"demote_count" validate:"gte=0"`
}

// DefaultConfig returns the default ledger constants.
func DefaultConfig() Config {
	return Config{
		StarScale: [4]float64{0, 0.4, 0.7, 1.0},
		Levels: LevelTable{
			Thresholds:   []int{0, 100, 250, 500, 1000, 2000, 3500, 5500, 8000, 11000, 15000},
			OverflowStep: 5000,
		},
		LeagueTimezone: "UTC",
		League: LeagueConfig{
			PromoteCount: 5,
			DemoteCount:  5,
		},
	}
}
