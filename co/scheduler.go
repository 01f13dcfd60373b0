package co

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/delaneyj/hcoroutines/clock"
	"github.com/delaneyj/hcoroutines/deferred"
)

// PauseSource exposes the host's global pause flag.
type PauseSource interface {
	Paused() bool
}

// PauseFunc adapts a func to PauseSource.
type PauseFunc func() bool

func (f PauseFunc) Paused() bool { return f() }

// PauseFlag is a host pause flag safe to flip from any goroutine.
type PauseFlag struct {
	v atomic.Bool
}

func (p *PauseFlag) Paused() bool { return p.v.Load() }
func (p *PauseFlag) SetPaused(paused bool) { p.v.Store(paused) }

// TimerService creates the countdowns used by Wait and Timeout.
type TimerService interface {
	NewTimer(d time.Duration, ignoreTimeScale bool, fire func()) clock.Countdown
}

// advancer is implemented by timer services the scheduler drives itself.
type advancer interface {
	Advance(dt time.Duration)
}

// Scheduler owns one routine tree: the root set, the two dispatch pools and
// the observed pause flag. It is driven by the host calling Tick once per
// frame and SecondaryTick once per secondary step. Apart from Post, none of
// its methods may be called concurrently.
type Scheduler struct {
	host    PauseSource
	logger  *slog.Logger
	onError ErrorHandler
	timers  TimerService

	defaultProcess ProcessMode
	defaultRun     RunMode

	primary   *deferred.Set[*Routine]
	secondary *deferred.Set[*Routine]
	roots     *deferred.Set[*Routine]
	rootSeq   uint64

	paused         bool
	delta          time.Duration
	secondaryDelta time.Duration
	frames         uint64
	secondaryTicks uint64

	postMu sync.Mutex
	posted []func()
}

type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimers replaces the default clock.Timers. Tick advances the service
// only if it has an Advance(time.Duration) method; otherwise the host drives
// it.
func WithTimers(ts TimerService) Option {
	return func(s *Scheduler) {
		if ts != nil {
			s.timers = ts
		}
	}
}

func WithErrorHandler(fn ErrorHandler) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// WithDefaultModes sets the modes roots resolve Inherit to. Inherit values
// are ignored.
func WithDefaultModes(pm ProcessMode, rm RunMode) Option {
	return func(s *Scheduler) {
		if pm != ProcessInherit {
			s.defaultProcess = pm
		}
		if rm != RunInherit {
			s.defaultRun = rm
		}
	}
}

// NewScheduler creates a scheduler reading the pause flag from host. A nil
// host is never paused.
func NewScheduler(host PauseSource, opts ...Option) *Scheduler {
	if host == nil {
		host = PauseFunc(func() bool { return false })
	}
	s := &Scheduler{
		host:           host,
		logger:         slog.Default(),
		defaultProcess: ProcessPrimary,
		defaultRun:     RunPausable,
		primary:        deferred.New[*Routine](),
		secondary:      deferred.New[*Routine](),
		roots:          deferred.New[*Routine](),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timers == nil {
		s.timers = clock.New()
	}
	s.logger = s.logger.With("component", "co")
	s.paused = host.Paused()
	return s
}

func (s *Scheduler) Logger() *slog.Logger { return s.logger }
func (s *Scheduler) Timers() TimerService { return s.timers }

// Paused is the pause flag as last observed by Tick.
func (s *Scheduler) Paused() bool { return s.paused }

// DeltaTime is the elapsed time passed to the current or last Tick.
func (s *Scheduler) DeltaTime() time.Duration { return s.delta }

// SecondaryDeltaTime is the elapsed time passed to the current or last
// SecondaryTick.
func (s *Scheduler) SecondaryDeltaTime() time.Duration { return s.secondaryDelta }

// StartCoroutine attaches r as a root routine and returns it.
func (s *Scheduler) StartCoroutine(r *Routine) *Routine {
	r.checkStartable()

	r.sched = s
	s.rootSeq++
	r.id = deriveID(0, s.rootSeq, r.name)

	// The listener goes in before attach and the root set entry after it: a
	// routine that dies while entering must never show up as a root.
	r.stopped.Once(func() {
		s.roots.Remove(r)
	})
	r.attach()
	if r.alive {
		s.roots.Add(r)
	}
	return r
}

// ActivateCoroutine puts r in the pool matching its process mode.
func (s *Scheduler) ActivateCoroutine(r *Routine) {
	s.pool(r).Add(r)
}

func (s *Scheduler) DeactivateCoroutine(r *Routine) {
	s.pool(r).Remove(r)
}

func (s *Scheduler) pool(r *Routine) *deferred.Set[*Routine] {
	if r.processMode == ProcessSecondary {
		return s.secondary
	}
	return s.primary
}

// Post queues fn to run on the scheduler's goroutine at the start of the
// next Tick. It is the only method safe to call from other goroutines.
func (s *Scheduler) Post(fn func()) {
	s.postMu.Lock()
	s.posted = append(s.posted, fn)
	s.postMu.Unlock()
}

func (s *Scheduler) drainPosted() {
	s.postMu.Lock()
	posted := s.posted
	s.posted = nil
	s.postMu.Unlock()

	for _, fn := range posted {
		s.runPosted(fn)
	}
}

func (s *Scheduler) runPosted(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			if ue, ok := rec.(*UsageError); ok {
				panic(ue)
			}
			s.logger.Error("posted callback panicked", "panic", rec)
		}
	}()
	fn()
}

// Tick runs one primary frame: queued callbacks, pause transitions, timers,
// then every routine in the primary pool.
func (s *Scheduler) Tick(dt time.Duration) {
	s.delta = dt
	s.frames++

	s.drainPosted()
	s.setPaused(s.host.Paused())

	if a, ok := s.timers.(advancer); ok {
		a.Advance(dt)
	}

	s.update(s.primary)
}

// SecondaryTick runs every routine in the secondary pool. Pause transitions
// are only observed by Tick.
func (s *Scheduler) SecondaryTick(dt time.Duration) {
	s.secondaryDelta = dt
	s.secondaryTicks++

	s.update(s.secondary)
}

func (s *Scheduler) update(pool *deferred.Set[*Routine]) {
	pool.Each(func(r *Routine) bool {
		if r.alive && r.receivingUpdates {
			r.guard("update", func() error {
				return r.behavior.Update(r)
			})
		}
		return true
	})
}

func (s *Scheduler) setPaused(paused bool) {
	if s.paused == paused {
		return
	}
	s.paused = paused
	s.logger.Debug("pause changed", "paused", paused, "roots", s.roots.Len())

	s.roots.Each(func(r *Routine) bool {
		r.NotifyPaused(paused)
		return true
	})
}

// Roots returns a snapshot of the alive root routines.
func (s *Scheduler) Roots() []*Routine {
	return s.roots.ToSlice()
}

// KillAll kills every root routine, and with them the whole tree.
func (s *Scheduler) KillAll() {
	s.roots.Each(func(r *Routine) bool {
		r.Kill()
		return true
	})
}

type Stats struct {
	Frames         uint64
	SecondaryTicks uint64
	Roots          int
	Primary        int
	Secondary      int
	Timers         int
}

func (s *Scheduler) Stats() Stats {
	st := Stats{
		Frames:         s.frames,
		SecondaryTicks: s.secondaryTicks,
		Roots:          s.roots.Len(),
		Primary:        s.primary.Len(),
		Secondary:      s.secondary.Len(),
	}
	if ts, ok := s.timers.(*clock.Timers); ok {
		st.Timers = ts.Len()
	}
	return st
}

// fault logs a contained error and forwards it to the error handler. A nil
// scheduler (a routine killed before it was ever started) logs to the
// default logger.
func (s *Scheduler) fault(r *Routine, err error) {
	if s == nil {
		slog.Default().Error("routine fault", "routine", r.String(), "error", err)
		return
	}
	s.logger.Error("routine fault", "routine", r.String(), "error", err)
	if s.onError != nil {
		s.onError(r, err)
	}
}

func (s *Scheduler) warn(r *Routine, msg string, err error) {
	s.logger.Warn(msg, "routine", r.String(), "error", err)
	if s.onError != nil {
		s.onError(r, err)
	}
}
