package co

import (
	"time"

	"github.com/delaneyj/hcoroutines/clock"
)

// Wait finishes after d of scaled time has passed while the routine was
// running.
func Wait(d time.Duration) *Routine {
	return New(&wait{d: d})
}

// WaitUnscaled is Wait counting real elapsed time.
func WaitUnscaled(d time.Duration) *Routine {
	return New(&wait{d: d, unscaled: true})
}

type wait struct {
	Base
	d        time.Duration
	unscaled bool
	timer    clock.Countdown
}

func (b *wait) OnStart(r *Routine) {
	if b.d <= 0 {
		r.Kill()
		return
	}
	b.timer = r.Scheduler().Timers().NewTimer(b.d, b.unscaled, r.Kill)
}

func (b *wait) OnPause(r *Routine) {
	r.DefaultPause()
	if b.timer != nil {
		b.timer.Pause()
	}
}

func (b *wait) OnResume(r *Routine) {
	r.DefaultResume()
	if b.timer != nil {
		b.timer.Resume()
	}
}

func (b *wait) OnExit(r *Routine) error {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	return nil
}

// WaitUntil finishes on the first check where cond reports true. cond is
// checked when the routine starts and then once per update.
func WaitUntil(cond func() bool) *Routine {
	return New(&condition{cond: cond, want: true})
}

// WaitWhile finishes on the first check where cond reports false.
func WaitWhile(cond func() bool) *Routine {
	return New(&condition{cond: cond, want: false})
}

type condition struct {
	Base
	cond func() bool
	want bool
}

func (b *condition) OnEnter(r *Routine) error {
	if b.cond == nil {
		r.Kill()
	}
	return nil
}

func (b *condition) OnStart(r *Routine) {
	if b.cond() == b.want {
		r.Kill()
		return
	}
	r.EnableUpdates()
}

func (b *condition) Update(r *Routine) error {
	if b.cond() == b.want {
		r.Kill()
	}
	return nil
}
