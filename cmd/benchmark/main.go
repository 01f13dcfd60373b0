package main

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/hcoroutines/co"
	"github.com/delaneyj/hcoroutines/config"
	"github.com/delaneyj/hcoroutines/inspect"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	configKey     = "config"
	framesKey     = "frames"
	widthKey      = "width"
	depthKey      = "depth"
	logLevelKey   = "log-level"
	treeKey       = "tree"
	cpuProfileKey = "cpuprofile"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure scheduler tick cost across routine tree shapes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  configKey,
				Usage: "YAML config file",
			},
			&cli.IntFlag{
				Name:  framesKey,
				Usage: "Frames to tick per scenario",
			},
			&cli.IntFlag{
				Name:  widthKey,
				Usage: "Routines per tree level",
			},
			&cli.IntFlag{
				Name:  depthKey,
				Usage: "Tree levels",
			},
			&cli.StringFlag{
				Name:  logLevelKey,
				Usage: "debug, info, warn or error",
			},
			&cli.BoolFlag{
				Name:  treeKey,
				Usage: "Print the routine tree of each scenario after warm-up",
			},
			&cli.StringFlag{
				Name:  cpuProfileKey,
				Usage: "Write a CPU profile to this file",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()
	if path := cmd.String(configKey); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if cmd.IsSet(framesKey) {
		cfg.Benchmark.Frames = int(cmd.Int(framesKey))
	}
	if cmd.IsSet(widthKey) {
		cfg.Benchmark.Width = int(cmd.Int(widthKey))
	}
	if cmd.IsSet(depthKey) {
		cfg.Benchmark.Depth = int(cmd.Int(depthKey))
	}
	if cmd.IsSet(logLevelKey) {
		cfg.Log.Level = cmd.String(logLevelKey)
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := cfg.Logger()

	if path := cmd.String(cpuProfileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	tbl := table.NewWriter()
	tbl.SetTitle(fmt.Sprintf("Scheduler ticks: %d x %d, %s frames",
		cfg.Benchmark.Width, cfg.Benchmark.Depth, humanize.Comma(int64(cfg.Benchmark.Frames))))
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"scenario", "routines", "avg", "min", "p75", "p99", "max"})

	for _, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Info("running scenario", "scenario", sc.name)
		res := runScenario(cfg, logger, sc, cmd.Bool(treeKey))

		calc := res.tach.Calc()
		tbl.AppendRows([]table.Row{
			{
				sc.name,
				humanize.Comma(int64(res.created)),
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
			},
		})
	}

	tbl.Render()
	return nil
}

type scenario struct {
	name string
	// build starts the scenario's routines and returns a per-frame hook.
	build func(s *co.Scheduler, b *builder) func(frame int)
}

type builder struct {
	width, depth int
	dt           time.Duration
	pause        *co.PauseFlag
	created      int
}

func (b *builder) count(r *co.Routine) *co.Routine {
	b.created++
	return r
}

type result struct {
	tach    *tachymeter.Tachymeter
	created int
}

func runScenario(cfg config.Config, logger *slog.Logger, sc scenario, printTree bool) result {
	pause := &co.PauseFlag{}
	s := co.NewScheduler(pause, cfg.SchedulerOptions(logger)...)
	b := &builder{
		width: cfg.Benchmark.Width,
		depth: cfg.Benchmark.Depth,
		dt:    cfg.FrameDuration(),
		pause: pause,
	}
	perFrame := sc.build(s, b)

	// warm up
	s.Tick(b.dt)
	if printTree {
		inspect.WriteTable(os.Stdout, s)
	}

	tach := tachymeter.New(&tachymeter.Config{Size: cfg.Benchmark.Frames})
	for i := 0; i < cfg.Benchmark.Frames; i++ {
		if perFrame != nil {
			perFrame(i)
		}
		start := time.Now()
		s.Tick(b.dt)
		s.SecondaryTick(b.dt)
		tach.AddTime(time.Since(start))
	}

	st := s.Stats()
	logger.Debug("scenario done",
		"scenario", sc.name,
		"roots", st.Roots,
		"primary", st.Primary,
		"secondary", st.Secondary,
		"timers", st.Timers,
	)
	s.KillAll()

	return result{tach: tach, created: b.created}
}

// togglePause flips the host pause flag every period frames.
func togglePause(pause *co.PauseFlag, period int) func(int) {
	return func(frame int) {
		if frame%period == 0 {
			pause.SetPaused(!pause.Paused())
		}
	}
}

// idle yields n times, then returns.
func idle(n int) iter.Seq[any] {
	return func(yield func(any) bool) {
		for range n {
			if !yield(nil) {
				return
			}
		}
	}
}

var scenarios = []scenario{
	{
		name: "sequence chains",
		build: func(s *co.Scheduler, b *builder) func(int) {
			for range b.width {
				s.StartCoroutine(b.count(co.RepeatForever(func(*co.Routine) *co.Routine {
					steps := make([]*co.Routine, b.depth)
					for i := range steps {
						steps[i] = b.count(co.Wait(b.dt))
					}
					return b.count(co.Sequence(steps...))
				})))
			}
			return nil
		},
	},
	{
		name: "parallel fan-out",
		build: func(s *co.Scheduler, b *builder) func(int) {
			for range b.depth {
				kids := make([]*co.Routine, b.width)
				for i := range kids {
					kids[i] = b.count(co.WaitUntil(func() bool { return false }))
				}
				s.StartCoroutine(b.count(co.Parallel(kids...)))
			}
			return nil
		},
	},
	{
		name: "generators",
		build: func(s *co.Scheduler, b *builder) func(int) {
			for range b.width {
				s.StartCoroutine(b.count(co.RepeatForever(func(*co.Routine) *co.Routine {
					return b.count(co.Coroutine(func(yield func(any) bool) {
						if !yield(idle(b.depth)) {
							return
						}
						yield(co.Wait(b.dt))
					}))
				})))
			}
			return nil
		},
	},
	{
		name: "nested trees",
		build: func(s *co.Scheduler, b *builder) func(int) {
			for range b.width {
				parent := s.StartCoroutine(b.count(co.New(nil)))
				for range b.depth {
					parent = parent.StartCoroutine(b.count(co.Parallel(
						b.count(co.WaitWhile(func() bool { return true })),
						b.count(co.New(nil)),
					)))
				}
			}
			return nil
		},
	},
	{
		name: "secondary",
		build: func(s *co.Scheduler, b *builder) func(int) {
			for range b.width {
				s.StartCoroutine(b.count(co.RepeatForever(func(*co.Routine) *co.Routine {
					return b.count(co.Coroutine(idle(b.depth)))
				}).WithProcessMode(co.ProcessSecondary)))
			}
			return nil
		},
	},
	{
		name: "pause toggling",
		build: func(s *co.Scheduler, b *builder) func(int) {
			for range b.width {
				s.StartCoroutine(b.count(co.RepeatForever(func(*co.Routine) *co.Routine {
					return b.count(co.Timeout(b.dt*time.Duration(b.depth), co.Coroutine(idle(b.depth*2))))
				})))
				s.StartCoroutine(b.count(co.WaitWhile(func() bool { return true }).
					WithRunMode(co.RunWhenPaused)))
			}
			return togglePause(b.pause, 10)
		},
	},
}
