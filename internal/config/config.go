// Package config loads a machine definition and its tuning from YAML.
package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/attractor-machine/internal/encoding"
	"github.com/danielpatrickdp/attractor-machine/internal/gate"
	"github.com/danielpatrickdp/attractor-machine/internal/hopfield"
	"github.com/danielpatrickdp/attractor-machine/internal/minterm"
	"github.com/danielpatrickdp/attractor-machine/internal/network"
	"github.com/danielpatrickdp/attractor-machine/internal/orchestrator"
)

// #region types
// Config is the on-disk machine file.
type Config struct {
	Name        string               `yaml:"name"`
	States      []string             `yaml:"states"`
	Relations   []string             `yaml:"relations"`
	Start       string               `yaml:"start,omitempty"`
	Outputs     map[string]string    `yaml:"outputs"`
	Transitions []minterm.Transition `yaml:"transitions,omitempty"`
	// Edges lists transitions grouped by relation as [from, to] pairs.
	Edges map[string][][]string `yaml:"edges,omitempty"`

	Encoding     EncodingConfig    `yaml:"encoding"`
	Memory       MemoryConfig      `yaml:"memory"`
	MintermLevel float64           `yaml:"minterm_level"`
	Recognition  RecognitionConfig `yaml:"recognition"`
	Journal      JournalConfig     `yaml:"journal"`
	Logging      LoggingConfig     `yaml:"logging"`
}

// EncodingConfig configures symbol vectors.
type EncodingConfig struct {
	Dimension   int     `yaml:"dimension"`
	Seed        uint64  `yaml:"seed"`
	MaxOverlap  float64 `yaml:"max_overlap"`
	MaxAttempts int     `yaml:"max_attempts"`
}

// MemoryConfig configures every associative layer.
type MemoryConfig struct {
	Mode           string  `yaml:"mode"` // synchronous, asynchronous
	MaxIterations  int     `yaml:"max_iterations"`
	Normalize      bool    `yaml:"normalize"`
	ZeroDiagonal   bool    `yaml:"zero_diagonal"`
	AutoCapacity   float64 `yaml:"auto_capacity"`
	HeteroCapacity float64 `yaml:"hetero_capacity"`
	Seed           uint64  `yaml:"seed"`
}

// RecognitionConfig configures the gate. Similarity, when set, overrides
// MaxDistance with the equivalent Hamming fraction.
type RecognitionConfig struct {
	MaxDistance        float64  `yaml:"max_distance"`
	Similarity         *float64 `yaml:"similarity,omitempty"`
	RequireConvergence bool     `yaml:"require_convergence"`
}

// JournalConfig configures the step journal. An empty path disables it.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}
// #endregion types

// #region defaults
// Default returns a file with every tuning field at its package default.
func Default() *Config {
	enc := encoding.DefaultConfig()
	mem := hopfield.DefaultConfig()
	g := gate.DefaultGateConfig()
	return &Config{
		Encoding: EncodingConfig{
			Dimension:   enc.Dimension,
			Seed:        enc.Seed,
			MaxOverlap:  enc.MaxOverlap,
			MaxAttempts: enc.MaxAttempts,
		},
		Memory: MemoryConfig{
			Mode:           string(mem.Mode),
			MaxIterations:  mem.MaxIterations,
			Normalize:      mem.Normalize,
			ZeroDiagonal:   mem.ZeroDiagonal,
			AutoCapacity:   mem.AutoCapacity,
			HeteroCapacity: mem.HeteroCapacity,
			Seed:           mem.Seed,
		},
		MintermLevel: network.DefaultConfig().MintermLevel,
		Recognition: RecognitionConfig{
			MaxDistance:        g.MaxDistance,
			RequireConvergence: g.RequireConvergence,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}
// #endregion defaults

// #region load
// Load reads a machine file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a machine file over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
// #endregion load

// #region conversions
// Definition expands the file into an orchestrator definition. Flat
// transitions come first, then edges in relation declaration order.
func (c *Config) Definition() (orchestrator.Definition, error) {
	known := make(map[string]bool, len(c.Relations))
	for _, r := range c.Relations {
		known[r] = true
	}
	for r := range c.Edges {
		if !known[r] {
			return orchestrator.Definition{}, fmt.Errorf("edges: %w", &encoding.UnknownLabelError{Label: r})
		}
	}

	transitions := append([]minterm.Transition(nil), c.Transitions...)
	for _, r := range c.Relations {
		for i, pair := range c.Edges[r] {
			if len(pair) != 2 {
				return orchestrator.Definition{}, fmt.Errorf("edges %s[%d]: want [from, to], got %d labels", r, i, len(pair))
			}
			transitions = append(transitions, minterm.Transition{From: pair[0], Relation: r, To: pair[1]})
		}
	}

	return orchestrator.Definition{
		States:      c.States,
		Relations:   c.Relations,
		Transitions: transitions,
		Outputs:     c.Outputs,
		Start:       c.Start,
	}, nil
}

// MachineConfig converts the tuning sections.
func (c *Config) MachineConfig() (orchestrator.Config, error) {
	mode, err := hopfield.ParseUpdateMode(c.Memory.Mode)
	if err != nil {
		return orchestrator.Config{}, fmt.Errorf("memory: %w", err)
	}
	maxDistance := c.Recognition.MaxDistance
	if c.Recognition.Similarity != nil {
		s := *c.Recognition.Similarity
		if s < -1 || s > 1 {
			return orchestrator.Config{}, fmt.Errorf("recognition: similarity %.4f outside [-1, 1]", s)
		}
		maxDistance = gate.MaxDistanceForSimilarity(s)
	}
	if maxDistance < 0 || maxDistance > 1 {
		return orchestrator.Config{}, fmt.Errorf("recognition: max distance %.4f outside [0, 1]", maxDistance)
	}

	return orchestrator.Config{
		Encoding: encoding.Config{
			Dimension:   c.Encoding.Dimension,
			Seed:        c.Encoding.Seed,
			MaxOverlap:  c.Encoding.MaxOverlap,
			MaxAttempts: c.Encoding.MaxAttempts,
		},
		Network: network.Config{
			Memory: hopfield.Config{
				MaxIterations:  c.Memory.MaxIterations,
				Mode:           mode,
				Normalize:      c.Memory.Normalize,
				ZeroDiagonal:   c.Memory.ZeroDiagonal,
				AutoCapacity:   c.Memory.AutoCapacity,
				HeteroCapacity: c.Memory.HeteroCapacity,
				Seed:           c.Memory.Seed,
			},
			MintermLevel: c.MintermLevel,
		},
		Gate: gate.GateConfig{
			MaxDistance:        maxDistance,
			RequireConvergence: c.Recognition.RequireConvergence,
		},
	}, nil
}

// Build constructs the machine the file describes.
func (c *Config) Build(opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	def, err := c.Definition()
	if err != nil {
		return nil, err
	}
	mc, err := c.MachineConfig()
	if err != nil {
		return nil, err
	}
	return orchestrator.New(def, mc, opts...)
}

// Logger builds a zap logger at the configured level. verbose forces debug.
func (c *Config) Logger(verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if c.Logging.Format != "" {
		zcfg.Encoding = c.Logging.Format
	}
	level := c.Logging.Level
	if verbose {
		level = "debug"
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		zcfg.Level = lvl
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	return logger, nil
}
// #endregion conversions
