package co

import (
	"time"

	"github.com/delaneyj/hcoroutines/clock"
)

// Timeout runs child and kills it, and itself, if it has not stopped within
// d of scaled time. The countdown is frozen while the routine is paused.
func Timeout(d time.Duration, child *Routine) *Routine {
	return New(&timeout{d: d, child: child})
}

// TimeoutUnscaled is Timeout counting real elapsed time.
func TimeoutUnscaled(d time.Duration, child *Routine) *Routine {
	return New(&timeout{d: d, child: child, unscaled: true})
}

type timeout struct {
	Base
	d        time.Duration
	child    *Routine
	unscaled bool
	timer    clock.Countdown
}

func (b *timeout) OnEnter(r *Routine) error {
	if b.child == nil {
		r.Kill()
	}
	return nil
}

func (b *timeout) OnStart(r *Routine) {
	r.StartCoroutine(b.child)
	if !r.IsAlive() {
		return
	}
	b.timer = r.Scheduler().Timers().NewTimer(b.d, b.unscaled, r.Kill)
}

func (b *timeout) OnPause(r *Routine) {
	r.DefaultPause()
	if b.timer != nil {
		b.timer.Pause()
	}
}

func (b *timeout) OnResume(r *Routine) {
	r.DefaultResume()
	if b.timer != nil {
		b.timer.Resume()
	}
}

func (b *timeout) OnChildStopped(r *Routine, child *Routine) {
	r.RemoveChild(child)
	r.Kill()
}

func (b *timeout) OnExit(r *Routine) error {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	return nil
}
