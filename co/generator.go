package co

import (
	"fmt"
	"iter"
)

// Coroutine drives seq one step per update. What a step yields decides what
// happens next:
//
//   - nil waits for the next update;
//   - a *Routine is started as a child and the sequence continues once it
//     stops;
//   - an iter.Seq[any] is wrapped in a Coroutine and started the same way;
//   - anything else is reported as ErrInvalidYield and skipped.
//
// The routine finishes when seq is exhausted. If it is killed before that,
// seq is stopped so its deferred calls run.
func Coroutine(seq iter.Seq[any]) *Routine {
	if seq == nil {
		return New(&generator{})
	}
	return New(&generator{open: func(*Routine) source {
		return pull(seq)
	}})
}

// CoroutineFunc is Coroutine for sequences that need their own routine. fn
// is called once, when the routine is entered.
func CoroutineFunc(fn func(r *Routine) iter.Seq[any]) *Routine {
	if fn == nil {
		return New(&generator{})
	}
	return New(&generator{open: func(r *Routine) source {
		seq := fn(r)
		if seq == nil {
			return nil
		}
		return pull(seq)
	}})
}

// Step is the result of one StepFunc call.
type Step struct {
	kind  stepKind
	child *Routine
}

type stepKind uint8

const (
	stepContinue stepKind = iota
	stepDelegate
	stepDone
)

// Continue waits for the next update.
func Continue() Step { return Step{kind: stepContinue} }

// Delegate runs child and calls the StepFunc again once it has stopped.
func Delegate(child *Routine) Step { return Step{kind: stepDelegate, child: child} }

// Done finishes the routine.
func Done() Step { return Step{kind: stepDone} }

// StepFunc is called once per update by a Steps routine.
type StepFunc func(r *Routine) Step

// Steps is the explicit form of Coroutine for code that keeps its own state
// instead of suspending inside a sequence.
func Steps(fn StepFunc) *Routine {
	if fn == nil {
		return New(&generator{})
	}
	return New(&generator{open: func(r *Routine) source {
		return &stepSource{r: r, fn: fn}
	}})
}

type source interface {
	next() (any, bool)
	stop()
}

type pullSource struct {
	nextFn func() (any, bool)
	stopFn func()
}

func pull(seq iter.Seq[any]) *pullSource {
	next, stop := iter.Pull(seq)
	return &pullSource{nextFn: next, stopFn: stop}
}

func (s *pullSource) next() (any, bool) { return s.nextFn() }
func (s *pullSource) stop() { s.stopFn() }

type stepSource struct {
	r  *Routine
	fn StepFunc
}

func (s *stepSource) next() (any, bool) {
	st := s.fn(s.r)
	switch st.kind {
	case stepDelegate:
		return st.child, true
	case stepDone:
		return nil, false
	default:
		return nil, true
	}
}

func (s *stepSource) stop() {}

type generator struct {
	Base
	open func(r *Routine) source
	src  source

	// stepping is set while the source runs; a kill from inside the source
	// postpones stopping it until the step returns.
	stepping    bool
	stopPending bool
}

func (b *generator) OnEnter(r *Routine) error {
	if b.open != nil {
		b.src = b.open(r)
	}
	switch {
	case b.src == nil:
		r.Kill()
	case !r.IsAlive():
		// killed by the open func itself
		b.src.stop()
	}
	return nil
}

func (b *generator) OnStart(r *Routine) {
	r.EnableUpdates()
}

func (b *generator) Update(r *Routine) error {
	v, ok := b.step()
	if !r.IsAlive() {
		if b.stopPending {
			b.stopPending = false
			b.src.stop()
		}
		return nil
	}
	if !ok {
		r.Kill()
		return nil
	}
	b.handle(r, v)
	return nil
}

func (b *generator) step() (any, bool) {
	b.stepping = true
	defer func() { b.stepping = false }()
	return b.src.next()
}

func (b *generator) handle(r *Routine, v any) {
	switch v := v.(type) {
	case nil:
	case *Routine:
		if v == nil {
			return
		}
		r.DisableUpdates()
		r.StartCoroutine(v)
	case iter.Seq[any]:
		r.DisableUpdates()
		r.StartCoroutine(Coroutine(v))
	case func(func(any) bool):
		r.DisableUpdates()
		r.StartCoroutine(Coroutine(v))
	default:
		r.Scheduler().warn(r, "invalid yield", fmt.Errorf("%w: %T", ErrInvalidYield, v))
	}
}

func (b *generator) OnChildStopped(r *Routine, child *Routine) {
	r.RemoveChild(child)
	if r.IsRunning() {
		r.EnableUpdates()
		return
	}
	r.EnableUpdatesOnResume()
}

func (b *generator) OnExit(r *Routine) error {
	if b.src == nil {
		return nil
	}
	if b.stepping {
		b.stopPending = true
		return nil
	}
	b.src.stop()
	return nil
}
