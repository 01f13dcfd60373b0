package co

// Factory builds the routine for one repetition. It receives the repeating
// routine itself.
type Factory func(repeat *Routine) *Routine

// Repeat runs a fresh routine from factory each time the previous one stops.
// times == 0 finishes immediately; negative times repeat forever.
//
// The completion check runs before each restart and compares the number of
// factory calls against times, so factory is called times+1 times in total.
func Repeat(times int, factory Factory) *Routine {
	if times < 0 {
		times = -1
	}
	return New(&repeat{times: times, factory: factory})
}

// RepeatForever never stops on its own.
func RepeatForever(factory Factory) *Routine {
	return Repeat(-1, factory)
}

type repeat struct {
	Base
	times   int
	count   int
	factory Factory
	// a repetition finished while paused; restart on resume
	pending bool
	// inside factory/StartCoroutine
	starting bool
}

func (b *repeat) infinite() bool { return b.times == -1 }

func (b *repeat) OnEnter(r *Routine) error {
	if b.times == 0 || b.factory == nil {
		r.Kill()
	}
	return nil
}

func (b *repeat) OnStart(r *Routine) {
	b.next(r)
}

func (b *repeat) next(r *Routine) {
	b.count++
	child := b.factory(r)
	if child == nil {
		r.Kill()
		return
	}
	b.starting = true
	r.StartCoroutine(child)
	b.starting = false
}

func (b *repeat) OnChildStopped(r *Routine, child *Routine) {
	r.RemoveChild(child)

	if !b.infinite() && b.count > b.times {
		r.Kill()
		return
	}
	if !r.IsRunning() {
		b.pending = true
		return
	}
	if b.infinite() && b.starting {
		// An endless repeat of a routine that finishes while starting would
		// recurse forever; continue on the next update instead.
		r.EnableUpdates()
		return
	}
	b.next(r)
}

func (b *repeat) Update(r *Routine) error {
	r.DisableUpdates()
	b.next(r)
	return nil
}

func (b *repeat) OnResume(r *Routine) {
	r.DefaultResume()
	if b.pending {
		b.pending = false
		b.next(r)
	}
}
