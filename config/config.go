package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Noofbiz/scoresim/evaluation"
	"github.com/Noofbiz/scoresim/playcaller"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every malformed or missing configuration value.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full configuration of a prediction run.
type Config struct {
	RandomSeed              uint64 `yaml:"random_seed"`
	PredictionYear          int    `yaml:"prediction_year"`
	PredictionGameweekStart int    `yaml:"prediction_gameweek_start"`
	PredictionGameweekEnd   int    `yaml:"prediction_gameweek_end"`
	Iterations              int    `yaml:"iterations"`
	PlaycallerMethod        string `yaml:"playcaller_method"` // random | nn
	PredictionMethod        string `yaml:"prediction_method"` // median | mean | quantile:<p>

	Simulation SimulationConfig `yaml:"simulation"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Model      ModelConfig      `yaml:"model"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// SimulationConfig controls how the Monte Carlo runs are executed.
type SimulationConfig struct {
	Workers       int     `yaml:"workers"`        // 0 = one per CPU
	BudgetSeconds float64 `yaml:"budget_seconds"` // per matchup, 0 = unlimited
}

// ScheduleConfig selects where games come from. URL wins over Path.
type ScheduleConfig struct {
	Path string `yaml:"path"` // CSV file, glob or directory
	URL  string `yaml:"url"`
}

// ModelConfig points at the trained yards model used by the nn playcaller.
type ModelConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig controls where runs are persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls log format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file at path and a .env file if one exists.
// Environment variables override the YAML values they correspond to.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: config.Load: read %q: %w", ErrInvalidConfig, path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: config.Load: parse YAML: %w", ErrInvalidConfig, err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Budget returns the per-matchup wall-clock budget.
func (c *Config) Budget() time.Duration {
	return time.Duration(c.Simulation.BudgetSeconds * float64(time.Second))
}

// Playcaller returns the configured outcome provider method.
func (c *Config) Playcaller() (playcaller.Method, error) {
	return playcaller.ParseMethod(c.PlaycallerMethod)
}

// Prediction returns the configured aggregation method.
func (c *Config) Prediction() (evaluation.Method, error) {
	return evaluation.ParseMethod(c.PredictionMethod)
}

// Validate reports every problem with c at once.
func (c *Config) Validate() error {
	var errs []error
	if c.PredictionYear <= 0 {
		errs = append(errs, fmt.Errorf("prediction_year must be set"))
	}
	if c.PredictionGameweekStart < 1 {
		errs = append(errs, fmt.Errorf("prediction_gameweek_start must be >= 1, got %d", c.PredictionGameweekStart))
	}
	if c.PredictionGameweekEnd < c.PredictionGameweekStart {
		errs = append(errs, fmt.Errorf("prediction_gameweek_end %d is before start %d",
			c.PredictionGameweekEnd, c.PredictionGameweekStart))
	}
	if c.Iterations < 1 {
		errs = append(errs, fmt.Errorf("iterations must be >= 1, got %d", c.Iterations))
	}
	if c.Simulation.Workers < 0 {
		errs = append(errs, fmt.Errorf("simulation.workers must be >= 0, got %d", c.Simulation.Workers))
	}
	if c.Simulation.BudgetSeconds < 0 {
		errs = append(errs, fmt.Errorf("simulation.budget_seconds must be >= 0, got %v", c.Simulation.BudgetSeconds))
	}
	method, err := c.Playcaller()
	if err != nil {
		errs = append(errs, err)
	} else if method == playcaller.MethodModel && c.Model.Path == "" {
		errs = append(errs, fmt.Errorf("model.path is required for playcaller_method %q", method))
	}
	if _, err := c.Prediction(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// applyEnvOverrides replaces values with environment variables when set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SCORESIM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: SCORESIM_SEED: %w", ErrInvalidConfig, err)
		}
		cfg.RandomSeed = seed
	}
	if v := os.Getenv("SCORESIM_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SCORESIM_ITERATIONS: %w", ErrInvalidConfig, err)
		}
		cfg.Iterations = n
	}
	if v := os.Getenv("SCORESIM_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SCORESIM_WORKERS: %w", ErrInvalidConfig, err)
		}
		cfg.Simulation.Workers = n
	}
	if v := os.Getenv("SCORESIM_MODEL_PATH"); v != "" {
		cfg.Model.Path = v
	}
	if v := os.Getenv("SCORESIM_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// setDefaults fills values that were left empty.
func setDefaults(cfg *Config) {
	if cfg.Iterations == 0 {
		cfg.Iterations = 1000
	}
	if cfg.PlaycallerMethod == "" {
		cfg.PlaycallerMethod = string(playcaller.MethodRandom)
	}
	if cfg.PredictionMethod == "" {
		cfg.PredictionMethod = evaluation.Median.String()
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "scoresim.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
