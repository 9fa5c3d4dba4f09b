// Package config captures the runtime knobs for a training run.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full set of knobs, loadable from YAML.
type Config struct {
	DataDir  string `yaml:"data_dir"`
	OutDir   string `yaml:"out_dir"`
	Seed     int64  `yaml:"seed"`
	MaxTrain int    `yaml:"max_train"` // 0 means the full split
	MaxTest  int    `yaml:"max_test"`

	BatchSize int     `yaml:"batch_size"`
	Optimizer string  `yaml:"optimizer"` // "adam" or "sgd"
	LR        float32 `yaml:"learning_rate"`
	Momentum  float32 `yaml:"momentum"` // sgd only
	Epochs    int     `yaml:"epochs"`
	Patience  int     `yaml:"patience"`
	MinDelta  float32 `yaml:"min_delta"`
}

// Overrides captures CLI supplied values. Zero values mean "not set".
type Overrides struct {
	DataDir   string
	OutDir    string
	Seed      int64
	MaxTrain  int
	MaxTest   int
	BatchSize int
	Optimizer string
	LR        float32
	Epochs    int
	Patience  int
}

// Default returns the standard configuration: batches of 128, Adam at
// 0.001, up to 100 epochs with patience 5.
func Default() *Config {
	return &Config{
		DataDir:   "data",
		OutDir:    "out",
		Seed:      42,
		BatchSize: 128,
		Optimizer: "adam",
		LR:        0.001,
		Epochs:    100,
		Patience:  5,
		MinDelta:  0.001,
	}
}

// Load reads a YAML config file over the defaults and validates it.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.OutDir != "" {
		c.OutDir = o.OutDir
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.MaxTrain > 0 {
		c.MaxTrain = o.MaxTrain
	}
	if o.MaxTest > 0 {
		c.MaxTest = o.MaxTest
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Optimizer != "" {
		c.Optimizer = o.Optimizer
	}
	if o.LR > 0 {
		c.LR = o.LR
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.Patience > 0 {
		c.Patience = o.Patience
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	if c.OutDir == "" {
		return errors.New("out_dir must be set")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.Optimizer != "adam" && c.Optimizer != "sgd" {
		return fmt.Errorf("optimizer must be adam or sgd (got %q)", c.Optimizer)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("momentum must be in [0, 1) (got %g)", c.Momentum)
	}
	if c.LR <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", c.LR)
	}
	if c.Epochs <= 0 || c.Epochs > 100 {
		return fmt.Errorf("epochs must be in 1..100 (got %d)", c.Epochs)
	}
	if c.Patience < 0 {
		return fmt.Errorf("patience must be >= 0 (got %d)", c.Patience)
	}
	if c.MinDelta < 0 {
		return fmt.Errorf("min_delta must be >= 0 (got %g)", c.MinDelta)
	}
	if c.MaxTrain < 0 || c.MaxTest < 0 {
		return errors.New("max_train and max_test must be >= 0")
	}
	return nil
}
