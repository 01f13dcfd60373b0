package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/delaneyj/hcoroutines/co"
	"github.com/delaneyj/hcoroutines/config"
	"github.com/delaneyj/hcoroutines/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second/60, cfg.FrameDuration())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(`
log:
  level: debug
  format: json
scheduler:
  process_mode: physics
  run_mode: when_paused
  time_scale: 0.5
benchmark:
  frames: 10
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, co.ProcessSecondary, cfg.Scheduler.ProcessMode)
	assert.Equal(t, co.RunWhenPaused, cfg.Scheduler.RunMode)
	assert.Equal(t, 0.5, cfg.Scheduler.TimeScale)
	assert.Equal(t, 10, cfg.Benchmark.Frames)
	assert.Equal(t, 60, cfg.Benchmark.FPS, "unset keys keep their defaults")
}

func TestParseEmpty(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestParseRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown key":   "scheduler:\n  tick_rate: 3\n",
		"unknown mode":  "scheduler:\n  run_mode: sometimes\n",
		"bad level":     "log:\n  level: loud\n",
		"bad format":    "log:\n  format: xml\n",
		"negative fps":  "benchmark:\n  fps: -1\n",
		"negative time": "scheduler:\n  time_scale: -2\n",
	} {
		_, err := config.Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := config.Default()
	cfg.Benchmark.Width = 0
	cfg.Benchmark.Depth = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "benchmark.width")
	assert.Contains(t, err.Error(), "benchmark.depth")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hco.yaml")
	require.NoError(t, os.WriteFile(path, []byte("benchmark:\n  width: 3\n  depth: 2\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Benchmark.Width)
	assert.Equal(t, 2, cfg.Benchmark.Depth)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSchedulerOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Scheduler.ProcessMode = co.ProcessSecondary
	cfg.Scheduler.TimeScale = 2

	s := co.NewScheduler(nil, cfg.SchedulerOptions(logging.Discard())...)
	r := s.StartCoroutine(co.Wait(time.Second))
	assert.Equal(t, co.ProcessSecondary, r.ProcessMode())

	s.Tick(600 * time.Millisecond)
	assert.False(t, r.IsAlive(), "time scale applies to scaled waits")
}
