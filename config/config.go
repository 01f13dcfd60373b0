// Package config loads scheduler and benchmark settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/delaneyj/hcoroutines/clock"
	"github.com/delaneyj/hcoroutines/co"
	"github.com/delaneyj/hcoroutines/logging"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SchedulerConfig struct {
	ProcessMode co.ProcessMode `yaml:"process_mode"`
	RunMode     co.RunMode     `yaml:"run_mode"`
	// TimeScale multiplies the time seen by scaled waits and timeouts.
	TimeScale float64 `yaml:"time_scale"`
}

type BenchmarkConfig struct {
	Frames int `yaml:"frames"`
	FPS    int `yaml:"fps"`
	// Width is the fan-out of each tree level, Depth the number of levels.
	Width int `yaml:"width"`
	Depth int `yaml:"depth"`
}

func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Scheduler: SchedulerConfig{
			ProcessMode: co.ProcessPrimary,
			RunMode:     co.RunPausable,
			TimeScale:   1,
		},
		Benchmark: BenchmarkConfig{
			Frames: 600,
			FPS:    60,
			Width:  100,
			Depth:  8,
		},
	}
}

// Parse decodes data over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("yaml unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Scheduler.TimeScale < 0 {
		errs = append(errs, fmt.Errorf("scheduler.time_scale: must not be negative, got %v", c.Scheduler.TimeScale))
	}
	if c.Benchmark.Frames <= 0 {
		errs = append(errs, fmt.Errorf("benchmark.frames: must be positive, got %d", c.Benchmark.Frames))
	}
	if c.Benchmark.FPS <= 0 {
		errs = append(errs, fmt.Errorf("benchmark.fps: must be positive, got %d", c.Benchmark.FPS))
	}
	if c.Benchmark.Width <= 0 {
		errs = append(errs, fmt.Errorf("benchmark.width: must be positive, got %d", c.Benchmark.Width))
	}
	if c.Benchmark.Depth <= 0 {
		errs = append(errs, fmt.Errorf("benchmark.depth: must be positive, got %d", c.Benchmark.Depth))
	}
	return errors.Join(errs...)
}

// Logger builds the logger described by the log section. The level must
// have passed Validate.
func (c Config) Logger() *slog.Logger {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.NewLogger(level, c.Log.Format)
}

// FrameDuration is the fixed delta the benchmark passes to each Tick.
func (c Config) FrameDuration() time.Duration {
	if c.Benchmark.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.Benchmark.FPS)
}

// SchedulerOptions turns the scheduler section into options for
// co.NewScheduler. It installs a fresh clock.Timers with the configured
// time scale.
func (c Config) SchedulerOptions(logger *slog.Logger) []co.Option {
	timers := clock.New()
	timers.SetTimeScale(c.Scheduler.TimeScale)
	return []co.Option{
		co.WithLogger(logger),
		co.WithTimers(timers),
		co.WithDefaultModes(c.Scheduler.ProcessMode, c.Scheduler.RunMode),
	}
}
