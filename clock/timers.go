// Package clock implements pausable countdown timers advanced by a host loop.
package clock

import (
	"time"

	"github.com/delaneyj/hcoroutines/deferred"
)

// Countdown is a one-shot timer that can be frozen and thawed.
type Countdown interface {
	// Pause freezes the remaining time.
	Pause()
	// Resume lets the remaining time run down again.
	Resume()
	Remaining() time.Duration
	// Stop cancels the timer; it will never fire.
	Stop()
}

// Timers is a tick-driven timer service. Nothing happens until Advance is
// called, normally once per host frame.
type Timers struct {
	scale  float64
	active *deferred.Set[*Timer]
}

func New() *Timers {
	return &Timers{
		scale:  1,
		active: deferred.New[*Timer](),
	}
}

// SetTimeScale multiplies the elapsed time seen by scaled timers. Negative
// values are clamped to zero.
func (ts *Timers) SetTimeScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	ts.scale = scale
}

func (ts *Timers) TimeScale() float64 {
	return ts.scale
}

// NewTimer arms a countdown of d. fire runs once, from inside Advance, when
// the remaining time reaches zero. ignoreTimeScale timers always consume
// real elapsed time.
func (ts *Timers) NewTimer(d time.Duration, ignoreTimeScale bool, fire func()) Countdown {
	t := &Timer{
		owner:           ts,
		remaining:       d,
		ignoreTimeScale: ignoreTimeScale,
		fire:            fire,
	}
	ts.active.Add(t)
	return t
}

// Len is the number of armed timers.
func (ts *Timers) Len() int {
	return ts.active.Len()
}

// Advance consumes dt from every running timer and fires the ones that
// expire. Callbacks may create or stop timers; timers created during Advance
// start counting on the next call.
func (ts *Timers) Advance(dt time.Duration) {
	scaled := time.Duration(float64(dt) * ts.scale)

	ts.active.Each(func(t *Timer) bool {
		if t.done || t.paused {
			return true
		}
		if t.ignoreTimeScale {
			t.remaining -= dt
		} else {
			t.remaining -= scaled
		}
		if t.remaining <= 0 {
			t.remaining = 0
			t.done = true
			ts.active.Remove(t)
			if t.fire != nil {
				t.fire()
			}
		}
		return true
	})
}

type Timer struct {
	owner           *Timers
	remaining       time.Duration
	ignoreTimeScale bool
	paused          bool
	done            bool
	fire            func()
}

func (t *Timer) Pause() {
	t.paused = true
}

func (t *Timer) Resume() {
	t.paused = false
}

func (t *Timer) Paused() bool {
	return t.paused
}

func (t *Timer) Remaining() time.Duration {
	return t.remaining
}

func (t *Timer) Stop() {
	if t.done {
		return
	}
	t.done = true
	t.owner.active.Remove(t)
}
