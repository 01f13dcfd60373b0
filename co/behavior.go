package co

// Behavior is the set of hooks a routine dispatches to. Every routine kind in
// this package is a Behavior; custom kinds embed Base and override what they
// need.
type Behavior interface {
	// OnEnter runs once the routine is attached, before its run state is
	// computed. Killing the routine here is allowed.
	OnEnter(r *Routine) error
	// OnExit runs once, when the routine is killed.
	OnExit(r *Routine) error
	// OnStart runs the first time the routine becomes running.
	OnStart(r *Routine)
	OnPause(r *Routine)
	OnResume(r *Routine)
	// Update runs every tick while the routine receives updates.
	Update(r *Routine) error
	// OnChildStopped runs when a child dies while r is still alive.
	OnChildStopped(r *Routine, child *Routine)
}

// Base is the default behaviour: no-op lifecycle hooks, pause and resume
// toggle update delivery, and a stopped child is unlinked.
type Base struct{}

func (Base) OnEnter(r *Routine) error { return nil }
func (Base) OnExit(r *Routine) error { return nil }
func (Base) OnStart(r *Routine) {}
func (Base) OnPause(r *Routine) { r.DefaultPause() }
func (Base) OnResume(r *Routine) { r.DefaultResume() }
func (Base) Update(r *Routine) error { return nil }

func (Base) OnChildStopped(r *Routine, child *Routine) {
	r.RemoveChild(child)
}

// Hooks builds a behaviour from plain funcs. Nil fields fall back to Base.
type Hooks struct {
	Enter        func(r *Routine) error
	Exit         func(r *Routine) error
	Start        func(r *Routine)
	Pause        func(r *Routine)
	Resume       func(r *Routine)
	Update       func(r *Routine) error
	ChildStopped func(r *Routine, child *Routine)
}

var _ Behavior = (*hooksBehavior)(nil)

type hooksBehavior struct {
	Base
	h Hooks
}

func (b *hooksBehavior) OnEnter(r *Routine) error {
	if b.h.Enter != nil {
		return b.h.Enter(r)
	}
	return nil
}

func (b *hooksBehavior) OnExit(r *Routine) error {
	if b.h.Exit != nil {
		return b.h.Exit(r)
	}
	return nil
}

func (b *hooksBehavior) OnStart(r *Routine) {
	if b.h.Start != nil {
		b.h.Start(r)
	}
}

func (b *hooksBehavior) OnPause(r *Routine) {
	if b.h.Pause != nil {
		b.h.Pause(r)
		return
	}
	b.Base.OnPause(r)
}

func (b *hooksBehavior) OnResume(r *Routine) {
	if b.h.Resume != nil {
		b.h.Resume(r)
		return
	}
	b.Base.OnResume(r)
}

func (b *hooksBehavior) Update(r *Routine) error {
	if b.h.Update != nil {
		return b.h.Update(r)
	}
	return nil
}

func (b *hooksBehavior) OnChildStopped(r *Routine, child *Routine) {
	if b.h.ChildStopped != nil {
		b.h.ChildStopped(r, child)
		return
	}
	b.Base.OnChildStopped(r, child)
}

// FromHooks creates a detached routine driven by h.
func FromHooks(h Hooks) *Routine {
	return New(&hooksBehavior{h: h})
}

// Do runs fn once when the routine starts, then finishes.
func Do(fn func()) *Routine {
	return FromHooks(Hooks{
		Start: func(r *Routine) {
			defer r.Kill()
			if fn != nil {
				fn()
			}
		},
	})
}
