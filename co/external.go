package co

import (
	"context"
	"sync"
)

// EventSource is anything that can notify a single subscriber once about a
// named event. signal.Bus satisfies it.
type EventSource interface {
	Once(event string, fn func()) (cancel func())
}

// WaitForSignal finishes the first time src emits event after the routine
// was entered. The subscription is dropped when the routine exits. src must
// emit on the scheduler goroutine; use Await for anything else.
func WaitForSignal(src EventSource, event string) *Routine {
	return New(&signalWait{src: src, event: event})
}

type signalWait struct {
	Base
	src    EventSource
	event  string
	cancel func()
}

func (b *signalWait) OnEnter(r *Routine) error {
	if b.src == nil {
		r.Kill()
		return nil
	}
	b.cancel = b.src.Once(b.event, r.Kill)
	return nil
}

func (b *signalWait) OnExit(r *Routine) error {
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	return nil
}

// Future is an operation completing on some other goroutine.
type Future interface {
	// OnComplete registers fn to run once the operation has completed. fn
	// may be called from any goroutine.
	OnComplete(fn func())
}

// Await finishes on the first Tick after f completes. Killing the routine
// earlier does not cancel the operation behind f.
func Await(f Future) *Routine {
	return New(&await{f: f})
}

type await struct {
	Base
	f Future
}

func (b *await) OnEnter(r *Routine) error {
	if b.f == nil {
		r.Kill()
	}
	return nil
}

func (b *await) OnStart(r *Routine) {
	sched := r.Scheduler()
	b.f.OnComplete(func() {
		sched.Post(r.Kill)
	})
}

type doneFuture struct {
	done <-chan struct{}
}

func (f doneFuture) OnComplete(fn func()) {
	go func() {
		<-f.done
		fn()
	}()
}

// FromContext completes when ctx is done.
func FromContext(ctx context.Context) Future {
	return doneFuture{done: ctx.Done()}
}

// FromChan completes when ch delivers its first value or is closed. The
// value itself is discarded.
func FromChan[T any](ch <-chan T) Future {
	return &chanFuture[T]{ch: ch, done: make(chan struct{})}
}

type chanFuture[T any] struct {
	ch   <-chan T
	once sync.Once
	done chan struct{}
}

func (f *chanFuture[T]) OnComplete(fn func()) {
	f.once.Do(func() {
		go func() {
			<-f.ch
			close(f.done)
		}()
	})
	doneFuture{done: f.done}.OnComplete(fn)
}

// TweenEngine creates tweens. Tweens it creates must invoke their finished
// callbacks on the scheduler goroutine.
type TweenEngine interface {
	CreateTween() Tweener
}

type Tweener interface {
	Play()
	Pause()
	Kill()
	IsValid() bool
	IsRunning() bool
	OnFinished(fn func())
}

// Tween creates a tween from engine when the routine starts, lets setup
// configure it, and finishes when the tween does. Pausing the routine
// pauses the tween; killing it kills the tween.
func Tween(engine TweenEngine, setup func(Tweener)) *Routine {
	return New(&tween{engine: engine, setup: setup})
}

type tween struct {
	Base
	engine TweenEngine
	setup  func(Tweener)
	tw     Tweener
}

func (b *tween) OnEnter(r *Routine) error {
	if b.engine == nil {
		r.Kill()
	}
	return nil
}

func (b *tween) OnStart(r *Routine) {
	tw := b.engine.CreateTween()
	if tw == nil {
		r.Kill()
		return
	}
	b.tw = tw
	if b.setup != nil {
		b.setup(tw)
	}
	if !tw.IsValid() || !tw.IsRunning() {
		r.Kill()
		return
	}
	tw.OnFinished(r.Kill)
}

func (b *tween) OnPause(r *Routine) {
	r.DefaultPause()
	if b.tw != nil && b.tw.IsValid() {
		b.tw.Pause()
	}
}

func (b *tween) OnResume(r *Routine) {
	r.DefaultResume()
	if b.tw != nil && b.tw.IsValid() {
		b.tw.Play()
	}
}

func (b *tween) OnExit(r *Routine) error {
	if b.tw != nil && b.tw.IsValid() {
		b.tw.Kill()
	}
	b.tw = nil
	return nil
}
