package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"

	"balancedbag/internal/ensemble"
	"balancedbag/internal/models"
	"balancedbag/internal/sampling"
)

var ErrUnsupportedFormat = errors.New("unsupported config format")

type Config struct {
	Server   Server   `yaml:"server" toml:"server"`
	Model    Model    `yaml:"model" toml:"model"`
	Ensemble Ensemble `yaml:"ensemble" toml:"ensemble"`
}

type Server struct {
	Port        string `yaml:"port" toml:"port" validate:"required,numeric"`
	APIKey      string `yaml:"api_key" toml:"api_key"`
	DataPath    string `yaml:"data_path" toml:"data_path"`
	MetricsPath string `yaml:"metrics_path" toml:"metrics_path"`
	MaxBatch    int    `yaml:"max_batch" toml:"max_batch" validate:"gte=1,lte=10000"`
}

type Model struct {
	Algo string `yaml:"algo" toml:"algo" validate:"oneof=dt bagging balanced rf brf gb"`
	Path string `yaml:"path" toml:"path" validate:"required"`
}

// Ensemble holds the hyperparameters of the bagging family. Numeric sizes
// are left untyped so that an integer means a count and a float a fraction.
type Ensemble struct {
	NEstimators       any    `yaml:"n_estimators" toml:"n_estimators"`
	MaxSamples        any    `yaml:"max_samples" toml:"max_samples"`
	MaxFeatures       any    `yaml:"max_features" toml:"max_features"`
	Bootstrap         bool   `yaml:"bootstrap" toml:"bootstrap"`
	BootstrapFeatures bool   `yaml:"bootstrap_features" toml:"bootstrap_features"`
	OOBScore          bool   `yaml:"oob_score" toml:"oob_score"`
	WarmStart         bool   `yaml:"warm_start" toml:"warm_start"`
	NJobs             int    `yaml:"n_jobs" toml:"n_jobs"`
	RandomState       *int64 `yaml:"random_state" toml:"random_state"`
	SamplingStrategy  any    `yaml:"sampling_strategy" toml:"sampling_strategy"`
	Replacement       bool   `yaml:"replacement" toml:"replacement"`
	Verbose           int    `yaml:"verbose" toml:"verbose" validate:"gte=0"`
	// Base picks the member learner of bagging and balanced: dt or gb.
	Base              string `yaml:"base" toml:"base" validate:"omitempty,oneof=dt gb"`
}

func Default() Config {
	return Config{
		Server: Server{
			Port:        "8080",
			DataPath:    filepath.Join("data", "synthetic.csv"),
			MetricsPath: filepath.Join("data", "learning_curve.csv"),
			MaxBatch:    1000,
		},
		Model: Model{
			Algo: "balanced",
			Path: filepath.Join("models", "model.gob"),
		},
		Ensemble: Ensemble{
			Bootstrap: true,
			NJobs:     1,
		},
	}
}

// Load reads path (YAML or TOML by extension) over the defaults, applies
// environment overrides and validates the result. An empty path skips the
// file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := decode(path, b, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	case ".toml":
		return toml.Unmarshal(b, cfg)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		c.Server.APIKey = v
	}
	if v := os.Getenv("MODEL_ALGO"); v != "" {
		c.Model.Algo = strings.ToLower(v)
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
}

var validate = validator.New()

// Validate checks field tags, then that the ensemble section converts.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.NewModel(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// NewModel returns an unfitted classifier for Model.Algo configured from
// the ensemble section.
func (c Config) NewModel() (models.Classifier, error) {
	var seed int64
	if c.Ensemble.RandomState != nil {
		seed = *c.Ensemble.RandomState
	}
	switch c.Model.Algo {
	case "dt":
		dt := models.NewDecisionTree()
		dt.Seed = seed
		return dt, nil
	case "gb":
		return models.DefaultGradientBoostingConfig().New(seed), nil
	case "bagging", "rf":
		b := ensemble.NewBagging()
		if c.Model.Algo == "rf" {
			b = ensemble.NewRandomForest()
		}
		if err := c.Ensemble.apply(c.Model.Algo, b); err != nil {
			return nil, err
		}
		return b, nil
	case "balanced", "brf":
		bb := ensemble.NewBalancedBagging()
		if c.Model.Algo == "brf" {
			bb = ensemble.NewBalancedRandomForest()
		}
		if err := c.Ensemble.apply(c.Model.Algo, &bb.Bagging); err != nil {
			return nil, err
		}
		s, err := sampling.ParseStrategy(c.Ensemble.SamplingStrategy)
		if err != nil {
			return nil, err
		}
		bb.SamplingStrategy = s
		bb.Replacement = c.Ensemble.Replacement
		return bb, nil
	}
	return nil, fmt.Errorf("unknown algo %q", c.Model.Algo)
}

// apply copies the section onto b; unset sizes keep b's preset. The forest
// presets fix their own trees, so Base only applies to bagging and balanced.
func (e Ensemble) apply(algo string, b *ensemble.Bagging) error {
	var errs error
	if e.Base != "" {
		if algo == "rf" || algo == "brf" {
			errs = multierr.Append(errs, &ensemble.ParamError{Param: "base", Value: e.Base, Reason: "unset for the " + algo + " preset"})
		} else {
			b.Base = baseLearner(e.Base)
		}
	}
	if e.NEstimators != nil {
		n, err := toInt("n_estimators", e.NEstimators)
		errs = multierr.Append(errs, err)
		b.NEstimators = n
	}
	if e.MaxSamples != nil {
		s, err := toSize("max_samples", e.MaxSamples)
		errs = multierr.Append(errs, err)
		b.MaxSamples = s
	}
	if e.MaxFeatures != nil {
		s, err := toSize("max_features", e.MaxFeatures)
		errs = multierr.Append(errs, err)
		b.MaxFeatures = s
	}
	b.Bootstrap = e.Bootstrap
	b.BootstrapFeatures = e.BootstrapFeatures
	b.OOBScore = e.OOBScore
	b.WarmStart = e.WarmStart
	b.NJobs = e.NJobs
	b.RandomState = e.RandomState
	b.Verbose = e.Verbose
	return errs
}

func baseLearner(name string) models.Factory {
	if name == "gb" {
		return models.DefaultGradientBoostingConfig()
	}
	return models.DefaultDecisionTreeConfig()
}

func toInt(param string, v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	}
	return 0, &ensemble.ParamError{Param: param, Value: v, Reason: "an integer"}
}

func toSize(param string, v any) (ensemble.Size, error) {
	if f, ok := v.(float64); ok {
		if !(f > 0 && f <= 1) {
			return ensemble.Size{}, &ensemble.ParamError{Param: param, Value: f, Reason: "a fraction in (0, 1]"}
		}
		return ensemble.Fraction(f), nil
	}
	n, err := toInt(param, v)
	if err != nil || n < 1 {
		return ensemble.Size{}, &ensemble.ParamError{Param: param, Value: v, Reason: "a positive integer count or a float fraction"}
	}
	return ensemble.Count(n), nil
}
