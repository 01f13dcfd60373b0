package co

// Parallel starts every child at once and stops when all of them have.
func Parallel(children ...*Routine) *Routine {
	return New(&parallel{children: children})
}

type parallel struct {
	Base
	children []*Routine
	starting bool
}

func (b *parallel) OnEnter(r *Routine) error {
	if len(b.children) == 0 {
		r.Kill()
	}
	return nil
}

// OnStart holds off the completion check until every child has been started,
// so children that finish instantly cannot end the group early.
func (b *parallel) OnStart(r *Routine) {
	b.starting = true
	for _, c := range b.children {
		if !r.IsAlive() {
			break
		}
		r.StartCoroutine(c)
	}
	b.starting = false

	if r.IsAlive() && r.ChildCount() == 0 {
		r.Kill()
	}
}

func (b *parallel) OnChildStopped(r *Routine, child *Routine) {
	r.RemoveChild(child)
	if !b.starting && r.ChildCount() == 0 {
		r.Kill()
	}
}

// Race starts every child at once and stops as soon as any of them stops,
// killing the others. Also known as wait-for-any.
func Race(children ...*Routine) *Routine {
	return New(&race{children: children})
}

type race struct {
	Base
	children []*Routine
}

func (b *race) OnEnter(r *Routine) error {
	if len(b.children) == 0 {
		r.Kill()
	}
	return nil
}

func (b *race) OnStart(r *Routine) {
	for _, c := range b.children {
		r.StartCoroutine(c)
		// a child that finished while starting already decided the race
		if !r.IsAlive() {
			return
		}
	}
}

func (b *race) OnChildStopped(r *Routine, child *Routine) {
	r.RemoveChild(child)
	r.Kill()
}
