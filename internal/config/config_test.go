package config

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickWave/internal/grasp"
	"pickWave/internal/logging"
	"pickWave/internal/opt"
	"pickWave/internal/warehouse"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"GRASP", "SWARM", "EXACT"}, cfg.Strategies)
	assert.Equal(t, grasp.DefaultConfig(), cfg.Grasp)
}

func TestParse_OverridesDefaults(t *testing.T) {
	src := `
time_budget: 90s
seed: 7
strategies: [grasp, " swarm "]
grasp:
  iterations: 12
  workers: 2
swarm:
  mutation_rate: 0.25
exact:
  time_limit: 500ms
log:
  level: debug
  format: json
`
	cfg, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.TimeBudget)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, []string{"GRASP", "SWARM"}, cfg.Strategies)

	assert.Equal(t, 12, cfg.Grasp.Iterations)
	assert.Equal(t, 2, cfg.Grasp.Workers)
	assert.Equal(t, grasp.DefaultConfig().RCLSize, cfg.Grasp.RCLSize)

	assert.Equal(t, 0.25, cfg.Swarm.MutationRate)
	assert.Equal(t, 200, cfg.Swarm.Particles)

	assert.Equal(t, 500*time.Millisecond, cfg.Exact.TimeLimit)
	assert.Equal(t, 16, cfg.Exact.MaxAisles)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, string(logging.FormatJSON), cfg.Log.Format)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "unknown key", src: "seeds: 3\n"},
		{name: "unknown nested key", src: "grasp:\n  rcl: 3\n"},
		{name: "bad duration", src: "time_budget: soon\n"},
		{name: "zero budget", src: "time_budget: 0s\n"},
		{name: "unknown strategy", src: "strategies: [GRASP, MIP]\n"},
		{name: "duplicate strategy", src: "strategies: [GRASP, grasp]\n"},
		{name: "no strategies", src: "strategies: []\n"},
		{name: "bad grasp", src: "grasp:\n  rcl_size: 0\n"},
		{name: "bad swarm", src: "swarm:\n  mutation_rate: 2\n"},
		{name: "bad exact", src: "exact:\n  max_aisles: 0\n"},
		{name: "bad level", src: "log:\n  level: loud\n"},
		{name: "bad format", src: "log:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wave.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 99\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.Seed)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestFactory(t *testing.T) {
	inst, err := warehouse.NewInstance(
		[]warehouse.Order{{0: 2}, {0: 1, 1: 3}, {1: 5}},
		[]warehouse.Aisle{{0: 5}, {1: 10}},
		2,
		warehouse.WaveBounds{Lower: 3, Upper: 8},
	)
	require.NoError(t, err)

	cfg := Default()
	cfg.Grasp.Workers = 1
	for _, name := range Names() {
		factory, err := cfg.Factory(name, nil)
		require.NoError(t, err, name)

		res, err := factory(1).Solve(context.Background(), inst)
		require.NoError(t, err, name)
		assert.Equal(t, name, res.Strategy)
		assert.InDelta(t, 5.0, res.Efficiency, 1e-12, name)
	}

	_, err = cfg.Factory("MIP", nil)
	require.Error(t, err)
}

func TestFactory_InvalidConfig(t *testing.T) {
	bad := []func(*File){
		func(c *File) { c.Grasp.RCLSize = 0 },
		func(c *File) { c.Swarm.MutationRate = 2 },
		func(c *File) { c.Exact.MaxAisles = 0 },
	}
	for i, mutate := range bad {
		cfg := Default()
		mutate(&cfg)
		for _, name := range Names() {
			var factory func(int64) opt.Optimizer
			require.NotPanics(t, func() {
				var err error
				factory, err = cfg.Factory(name, nil)
				require.Error(t, err, "case %d, %s", i, name)
			})
			assert.Nil(t, factory)
		}
	}
}

func TestOverrides_OnlyExplicitFlags(t *testing.T) {
	fs := flag.NewFlagSet("wave", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	o := BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-seed", "5", "-algos", "exact, grasp", "-grasp_rcl", "4", "-exact_time_limit", "2s"}))

	cfg, err := Parse(strings.NewReader("seed: 1\ngrasp:\n  iterations: 7\nswarm:\n  particles: 30\n"))
	require.NoError(t, err)
	require.NoError(t, o.Apply(&cfg))

	assert.Equal(t, int64(5), cfg.Seed)
	assert.Equal(t, []string{"EXACT", "GRASP"}, cfg.Strategies)
	assert.Equal(t, 4, cfg.Grasp.RCLSize)
	assert.Equal(t, 2*time.Second, cfg.Exact.TimeLimit)

	// Не заданные флаги не затирают значения файла
	assert.Equal(t, 7, cfg.Grasp.Iterations)
	assert.Equal(t, 30, cfg.Swarm.Particles)
}

func TestOverrides_Invalid(t *testing.T) {
	fs := flag.NewFlagSet("wave", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	o := BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-swarm_mut", "3"}))

	cfg := Default()
	require.Error(t, o.Apply(&cfg))
}
