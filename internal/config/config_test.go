package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 1, c.Runner.Instances)
	assert.InDelta(t, 4.0, c.Demo.Range, 1e-9)
}

func TestLoadOverridesDefaults(t *testing.T) {
	c, err := Load(strings.NewReader(`
log:
  level: debug
  format: console
tree:
  document: trees/alien.bt
  seed: 7
runner:
  instances: 4
  tick_rate: 50
  max_ticks: 200
monitor:
  enabled: true
  addr: ":9000"
demo:
  attack_speed: 10
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "console", c.Log.Format)
	assert.Equal(t, "trees/alien.bt", c.Tree.Document)
	assert.Equal(t, int64(7), c.Tree.Seed)
	assert.Equal(t, 4, c.Runner.Instances)
	assert.Equal(t, uint64(200), c.Runner.MaxTicks)
	assert.Equal(t, 20*time.Millisecond, c.Runner.Interval())
	assert.True(t, c.Monitor.Enabled)
	assert.Equal(t, ":9000", c.Monitor.Addr)
	assert.InDelta(t, 10.0, c.Demo.AttackSpeed, 1e-9)
	assert.InDelta(t, 2.0, c.Demo.MoveSpeed, 1e-9, "untouched keys keep defaults")
}

func TestLoadEmptyUsesDefaults(t *testing.T) {
	c, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(strings.NewReader("runner:\n  workers: 3\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"level", func(c *Config) { c.Log.Level = "loud" }},
		{"format", func(c *Config) { c.Log.Format = "xml" }},
		{"instances", func(c *Config) { c.Runner.Instances = 0 }},
		{"tick rate", func(c *Config) { c.Runner.TickRate = 0 }},
		{"monitor addr", func(c *Config) { c.Monitor = Monitor{Enabled: true} }},
		{"speed", func(c *Config) { c.Demo.MoveSpeed = -1 }},
		{"range", func(c *Config) { c.Demo.Range = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "btree.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runner:\n  instances: 2\n"), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Runner.Instances)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("runner:\n  tick_rate: -1\n"), 0o600))
	_, err = LoadFile(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
