// Package config holds the YAML configuration of the btree runner.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/btree/internal/core/observability/log"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Log     Log     `yaml:"log"`
	Tree    Tree    `yaml:"tree"`
	Runner  Runner  `yaml:"runner"`
	Monitor Monitor `yaml:"monitor"`
	Demo    Demo    `yaml:"demo"`
}

type Log struct {
	Level string `yaml:"level"`
	// Format is "json" or "console".
	Format string `yaml:"format"`
}

type Tree struct {
	// Document is a path to a tree document. Empty selects the built-in alien tree.
	Document string `yaml:"document"`
	// Seed makes Random nodes reproducible. Zero seeds from the clock.
	Seed int64 `yaml:"seed"`
}

type Runner struct {
	Instances int `yaml:"instances"`
	// TickRate is in ticks per second.
	TickRate float64 `yaml:"tick_rate"`
	// MaxTicks stops every instance after that many ticks. Zero runs until cancelled.
	MaxTicks uint64 `yaml:"max_ticks"`
}

// Interval is the wall-clock time between two ticks.
func (r Runner) Interval() time.Duration {
	return time.Duration(float64(time.Second) / r.TickRate)
}

type Monitor struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Demo parameterises the alien host simulation.
type Demo struct {
	MoveSpeed      float64 `yaml:"move_speed"`
	AttackSpeed    float64 `yaml:"attack_speed"`
	AttackHoldTime float64 `yaml:"attack_hold_time"`
	Range          float64 `yaml:"range"`
	StartX         float64 `yaml:"start_x"`
	StartY         float64 `yaml:"start_y"`
	PlayerX        float64 `yaml:"player_x"`
	PlayerY        float64 `yaml:"player_y"`
}

func Default() *Config {
	return &Config{
		Log:     Log{Level: "info", Format: "json"},
		Runner:  Runner{Instances: 1, TickRate: 30},
		Monitor: Monitor{Addr: "127.0.0.1:8090"},
		Demo: Demo{
			MoveSpeed:      2,
			AttackSpeed:    8,
			AttackHoldTime: 0.5,
			Range:          4,
			StartX:         12,
			StartY:         3,
		},
	}
}

// Load decodes YAML from r on top of Default and validates the result.
func Load(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want json or console", c.Log.Format))
	}
	if c.Runner.Instances < 1 {
		errs = append(errs, fmt.Errorf("runner.instances must be positive, got %d", c.Runner.Instances))
	}
	if c.Runner.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("runner.tick_rate must be positive, got %g", c.Runner.TickRate))
	}
	if c.Monitor.Enabled && c.Monitor.Addr == "" {
		errs = append(errs, errors.New("monitor.addr is required when the monitor is enabled"))
	}
	if c.Demo.MoveSpeed <= 0 || c.Demo.AttackSpeed <= 0 {
		errs = append(errs, errors.New("demo speeds must be positive"))
	}
	if c.Demo.AttackHoldTime < 0 || c.Demo.Range < 0 {
		errs = append(errs, errors.New("demo hold time and range must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
