package co

// Sequence runs children one after another, each starting once the previous
// one has stopped. A child that stops while the sequence is paused does not
// start the next one until the sequence resumes.
func Sequence(children ...*Routine) *Routine {
	return New(&sequence{children: children})
}

type sequence struct {
	Base
	children    []*Routine
	idx         int
	nextPending bool
}

func (b *sequence) OnEnter(r *Routine) error {
	if len(b.children) == 0 {
		r.Kill()
	}
	return nil
}

func (b *sequence) OnStart(r *Routine) {
	r.StartCoroutine(b.children[0])
}

func (b *sequence) OnChildStopped(r *Routine, child *Routine) {
	r.RemoveChild(child)

	b.idx++
	if b.idx >= len(b.children) {
		r.Kill()
		return
	}
	if r.IsRunning() {
		r.StartCoroutine(b.children[b.idx])
		return
	}
	b.nextPending = true
}

func (b *sequence) OnResume(r *Routine) {
	if b.nextPending {
		b.nextPending = false
		r.StartCoroutine(b.children[b.idx])
	}
}
