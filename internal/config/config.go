// Package config assembles the runtime configuration: package defaults,
// then an optional YAML file, then .env and SKILLTREE_* environment
// variables. The result is validated before use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/skilltree/internal/cache"
	"github.com/abhisek/skilltree/internal/calibrate"
	"github.com/abhisek/skilltree/internal/engine"
	"github.com/abhisek/skilltree/internal/gamify"
	"github.com/abhisek/skilltree/internal/identity"
	"github.com/abhisek/skilltree/internal/llm"
	"github.com/abhisek/skilltree/internal/logger"
	"github.com/abhisek/skilltree/internal/progress"
	"github.com/abhisek/skilltree/internal/recommend"
	"github.com/abhisek/skilltree/internal/telemetry"
	"github.com/abhisek/skilltree/internal/tutor"
)

// Config is the whole runtime configuration.
type Config struct {
	// DBPath is the SQLite file. Empty means store.DefaultDBPath.
	DBPath string `yaml:"db_path"`

	Log         logger.Config         `yaml:"log"`
	Telemetry   telemetry.Config      `yaml:"telemetry"`
	Progress    progress.Config       `yaml:"progress"`
	Gamify      gamify.Config         `yaml:"gamification"`
	Calibration calibrate.Policy      `yaml:"calibration"`
	Rewards     calibrate.RewardTable `yaml:"rewards"`
	Recommend   recommend.Config      `yaml:"recommend"`
	Engine      engine.Config         `yaml:"engine"`
	Auth        identity.Config       `yaml:"auth"`
	Cache       cache.Config          `yaml:"cache"`
	LLM         llm.Config            `yaml:"llm"`
	Tutor       tutor.Config          `yaml:"tutor"`
}

// Default composes every package's defaults.
func Default() Config {
	return Config{
		Log:         logger.DefaultConfig(),
		Telemetry:   telemetry.DefaultConfig(),
		Progress:    progress.DefaultConfig(),
		Gamify:      gamify.DefaultConfig(),
		Calibration: calibrate.DefaultPolicy(),
		Rewards:     calibrate.DefaultRewardTable(),
		Recommend:   recommend.DefaultConfig(),
		Engine:      engine.DefaultConfig(),
		Auth:        identity.DefaultConfig(),
		Cache:       cache.DefaultConfig(),
		LLM:         llm.DefaultConfig(),
		Tutor:       tutor.DefaultConfig(),
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load builds the configuration. path may be empty; SKILLTREE_CONFIG is
// consulted after .env is loaded. A missing .env is fine; a missing
// explicit config file is not.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv("SKILLTREE_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.LLM = cfg.LLM.Discover()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode overlays a YAML document on cfg. Unknown keys are errors.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Validate checks field rules and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.LLM.Check(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.Gamify.Levels.Thresholds) > 0 && c.Gamify.Levels.Thresholds[0] != 0 {
		return fmt.Errorf("invalid config: first level threshold must be 0")
	}
	return nil
}

// envString maps a variable onto a string field.
type envString struct {
	key string
	dst *string
}

func applyEnv(c *Config) error {
	for _, e := range []envString{
		{"SKILLTREE_DB", &c.DBPath},
		{"SKILLTREE_LOG_MODE", &c.Log.Mode},
		{"SKILLTREE_LOG_LEVEL", &c.Log.Level},
		{"SKILLTREE_LOG_SALT", &c.Log.HashSalt},
		{"SKILLTREE_JWT_SECRET", &c.Auth.Secret},
		{"SKILLTREE_JWT_ISSUER", &c.Auth.Issuer},
		{"SKILLTREE_LEAGUE_TIMEZONE", &c.Gamify.LeagueTimezone},
		{"SKILLTREE_REDIS_ADDR", &c.Cache.RedisAddr},
		{"SKILLTREE_REDIS_PASSWORD", &c.Cache.RedisPassword},
		{"SKILLTREE_LLM_PROVIDER", &c.LLM.Provider},
		{"SKILLTREE_LLM_MODEL", &c.LLM.Model},
		{"SKILLTREE_LLM_API_KEY", &c.LLM.APIKey},
		{"SKILLTREE_LLM_BASE_URL", &c.LLM.BaseURL},
		{"SKILLTREE_ENV", &c.Telemetry.Environment},
	} {
		if v, ok := os.LookupEnv(e.key); ok && v != "" {
			*e.dst = v
		}
	}

	if v := os.Getenv("SKILLTREE_TRACE"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SKILLTREE_TRACE: %w", err)
		}
		c.Telemetry.Enabled = on
	}
	if v := os.Getenv("SKILLTREE_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SKILLTREE_REDIS_DB: %w", err)
		}
		c.Cache.RedisDB = n
	}
	return nil
}
