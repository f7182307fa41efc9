package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty directory so no stray .env is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SKILLTREE_CONFIG", "SKILLTREE_DB", "SKILLTREE_LOG_MODE", "SKILLTREE_JWT_SECRET",
		"SKILLTREE_REDIS_ADDR", "SKILLTREE_REDIS_DB", "SKILLTREE_TRACE", "SKILLTREE_LLM_PROVIDER",
		"SKILLTREE_LLM_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)

	path := filepath.Join(dir, "skilltree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path: /tmp/from-file.db
progress:
  mastery_threshold: 70
  stale_after: 72h
calibration:
  min_unique_students: 20
gamification:
  league_timezone: Europe/Berlin
cache:
  redis_addr: localhost:6379
`), 0o644))

	t.Setenv("SKILLTREE_DB", "/tmp/from-env.db")
	t.Setenv("SKILLTREE_REDIS_DB", "2")
	t.Setenv("SKILLTREE_TRACE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env.db", cfg.DBPath)
	assert.Equal(t, 70, cfg.Progress.MasteryThreshold)
	assert.Equal(t, 72*time.Hour, cfg.Progress.StaleAfter)
	assert.Equal(t, 20, cfg.Calibration.MinUniqueStudents)
	assert.Equal(t, "Europe/Berlin", cfg.Gamify.LeagueTimezone)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 2, cfg.Cache.RedisDB)
	assert.True(t, cfg.Telemetry.Enabled)
	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Rewards, cfg.Rewards)
}

func TestLoad_ConfigFromEnvVar(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)
	path := filepath.Join(dir, "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recommend:\n  recent_window: 5\n"), 0o644))
	t.Setenv("SKILLTREE_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Recommend.RecentWindow)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SKILLTREE_JWT_SECRET=from-dotenv\n"), 0o644))
	// godotenv does not override variables that are already set.
	require.NoError(t, os.Unsetenv("SKILLTREE_JWT_SECRET"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Auth.Secret)
}

func TestLoad_Rejects(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "bogus: 1\n"},
		{"threshold out of range", "progress:\n  mastery_threshold: 120\n"},
		{"bad log mode", "log:\n  mode: loud\n"},
		{"unknown llm provider", "llm:\n  provider: hal\n"},
		{"llm without key", "llm:\n  provider: anthropic\n"},
		{"levels not from zero", "gamification:\n  levels:\n    thresholds: [10, 100]\n    overflow_step: 10\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	chdir(t)
	clearEnv(t)
	_, err := Load("/nonexistent/skilltree.yaml")
	assert.Error(t, err)
}

func TestLoad_BadEnv(t *testing.T) {
	chdir(t)
	clearEnv(t)
	t.Setenv("SKILLTREE_TRACE", "maybe")
	_, err := Load("")
	assert.Error(t, err)
}
