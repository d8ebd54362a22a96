// Package config loads pipeline tuning from a YAML file into engine options,
// for the example programs and operational surfaces that prefer declarative
// setup over functional options.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dr3armsed/AiAlive-sub000/engine"
)

// Config mirrors the tunable subset of the engine options.
type Config struct {
	ReplicasPerBase        int      `yaml:"replicas_per_base"`
	Roles                  []string `yaml:"roles"`
	BiasVocabulary         []string `yaml:"bias_vocabulary"`
	MaxTurnsPerParticipant int      `yaml:"max_turns_per_participant"`
	MaxTotalTurns          int      `yaml:"max_total_turns"`
	Window                 int      `yaml:"scoring_window"`
	MaxGenerationDepth     int      `yaml:"max_generation_depth"`
	ConsensusThreshold     float64  `yaml:"consensus_threshold"`
	Seed                   int64    `yaml:"seed"`
}

// Default returns the zero-surprise baseline configuration.
func Default() Config {
	return Config{
		ReplicasPerBase:        3,
		MaxTurnsPerParticipant: 5,
		MaxTotalTurns:          30,
		Window:                 10,
		ConsensusThreshold:     0.70,
	}
}

// Load reads and validates a YAML config file, applying defaults for unset
// fields.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects out-of-range tuning values.
func (c Config) Validate() error {
	if c.ReplicasPerBase < 1 {
		return fmt.Errorf("replicas_per_base must be positive, got %d", c.ReplicasPerBase)
	}
	if c.MaxTurnsPerParticipant < 1 || c.MaxTotalTurns < 1 {
		return fmt.Errorf("turn budgets must be positive")
	}
	if c.ConsensusThreshold < 0 || c.ConsensusThreshold > 1 {
		return fmt.Errorf("consensus_threshold outside [0,1]: %v", c.ConsensusThreshold)
	}
	return nil
}

// Apply returns an engine option function carrying the configured values.
func (c Config) Apply() func(o *engine.Options) {
	return func(o *engine.Options) {
		o.ReplicasPerBase = c.ReplicasPerBase
		o.Roles = c.Roles
		o.BiasVocabulary = c.BiasVocabulary
		o.MaxTurnsPerParticipant = c.MaxTurnsPerParticipant
		o.MaxTotalTurns = c.MaxTotalTurns
		o.Window = c.Window
		o.MaxGenerationDepth = c.MaxGenerationDepth
		o.ConsensusThreshold = c.ConsensusThreshold
	}
}
