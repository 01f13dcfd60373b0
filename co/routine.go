package co

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/hcoroutines/signal"
)

// Routine is a node in the routine tree. What it does is decided by its
// Behavior; the node itself owns the tree links, the run state and the
// bookkeeping with the scheduler.
//
// Children are kept in an intrusive doubly linked list so that a child can
// unlink itself while its parent is walking the list.
type Routine struct {
	sched    *Scheduler
	parent   *Routine
	behavior Behavior

	name     string
	id       uint64
	childSeq uint64

	firstChild, lastChild    *Routine
	prevSibling, nextSibling *Routine
	// linked is true while the routine is in its parent's child list
	linked   bool
	children int

	processMode ProcessMode
	runMode     RunMode

	attached                       bool
	alive                          bool
	running                        bool
	receivingUpdates               bool
	hasCalledStart                 bool
	wasReceivingUpdatesBeforePause bool

	stopped signal.Event
}

// New creates a detached routine. A nil behaviour behaves like Base.
func New(b Behavior) *Routine {
	if b == nil {
		b = Base{}
	}
	return &Routine{
		behavior: b,
		alive:    true,
	}
}

func (r *Routine) WithName(name string) *Routine {
	r.checkDetached("set name")
	r.name = name
	return r
}

// WithProcessMode must be called before the routine is started.
func (r *Routine) WithProcessMode(m ProcessMode) *Routine {
	r.checkDetached("set process mode")
	r.processMode = m
	return r
}

// WithRunMode must be called before the routine is started.
func (r *Routine) WithRunMode(m RunMode) *Routine {
	r.checkDetached("set run mode")
	r.runMode = m
	return r
}

func (r *Routine) checkDetached(op string) {
	if r.attached {
		misuse(op, r, ErrAlreadyAttached)
	}
}

func (r *Routine) Name() string { return r.name }
func (r *Routine) ID() uint64 { return r.id }
func (r *Routine) Parent() *Routine { return r.parent }
func (r *Routine) Scheduler() *Scheduler { return r.sched }
func (r *Routine) Behavior() Behavior { return r.behavior }
func (r *Routine) IsAttached() bool { return r.attached }
func (r *Routine) IsAlive() bool { return r.alive }
func (r *Routine) IsRunning() bool { return r.running }
func (r *Routine) ShouldReceiveUpdates() bool { return r.receivingUpdates }
func (r *Routine) ProcessMode() ProcessMode { return r.processMode }
func (r *Routine) RunMode() RunMode { return r.runMode }
func (r *Routine) ChildCount() int { return r.children }

func (r *Routine) String() string {
	if r == nil {
		return "<nil>"
	}
	name := r.name
	if name == "" {
		name = "routine"
	}
	return fmt.Sprintf("%s#%016x", name, r.id)
}

// Children walks the current child list. The walk tolerates children
// unlinking themselves along the way.
func (r *Routine) Children() iter.Seq[*Routine] {
	return func(yield func(*Routine) bool) {
		for c := r.firstChild; c != nil; {
			next := c.nextSibling
			if c.linked && !yield(c) {
				return
			}
			c = next
		}
	}
}

// OnStopped registers fn to run once the routine is killed. If it is already
// dead fn runs immediately.
func (r *Routine) OnStopped(fn func()) (cancel func()) {
	if !r.alive {
		fn()
		return func() {}
	}
	return r.stopped.Once(fn)
}

// StartCoroutine attaches child below r and initialises it. The child
// inherits unresolved modes from r. It returns child.
func (r *Routine) StartCoroutine(child *Routine) *Routine {
	if !r.alive {
		misuse("start child", r, ErrDeadParent)
	}
	child.checkStartable()

	child.sched = r.sched
	child.parent = r
	r.childSeq++
	child.id = deriveID(r.id, r.childSeq, child.name)
	r.addChild(child)
	child.attach()
	return child
}

func (r *Routine) checkStartable() {
	r.checkDetached("start")
	if !r.alive {
		misuse("start", r, ErrKilled)
	}
}

func deriveID(parent, seq uint64, name string) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], parent)
	binary.LittleEndian.PutUint64(buf[8:], seq)
	d := xxhash.New()
	d.Write(buf[:])
	d.WriteString(name)
	return d.Sum64()
}

// attach resolves inherited modes, runs the enter hook and, if the routine
// survived it, computes the initial run state.
func (r *Routine) attach() {
	r.attached = true
	r.resolveModes()

	r.guard("enter", func() error {
		return r.behavior.OnEnter(r)
	})

	if r.alive {
		r.updateRunState(r.sched.paused)
	}
}

func (r *Routine) resolveModes() {
	if r.processMode == ProcessInherit {
		if r.parent != nil {
			r.processMode = r.parent.processMode
		} else {
			r.processMode = r.sched.defaultProcess
		}
	}
	if r.runMode == RunInherit {
		if r.parent != nil {
			r.runMode = r.parent.runMode
		} else {
			r.runMode = r.sched.defaultRun
		}
	}
}

func (r *Routine) updateRunState(paused bool) {
	shouldRun := r.runMode.shouldRun(paused)
	if r.running == shouldRun {
		return
	}
	r.running = shouldRun

	switch {
	case !shouldRun:
		r.guard("pause", func() error {
			r.behavior.OnPause(r)
			return nil
		})
	case r.hasCalledStart:
		r.guard("resume", func() error {
			r.behavior.OnResume(r)
			return nil
		})
	default:
		r.hasCalledStart = true
		r.guard("start", func() error {
			r.behavior.OnStart(r)
			return nil
		})
	}
}

// NotifyPaused recomputes the run state against the host pause flag, then
// does the same for every descendant, parents before children.
func (r *Routine) NotifyPaused(paused bool) {
	if !r.alive {
		return
	}
	r.updateRunState(paused)
	if !r.alive {
		return
	}

	for c := r.firstChild; c != nil; {
		next := c.nextSibling
		c.NotifyPaused(paused)
		c = next
	}
}

// EnableUpdates registers the routine with the pool of its process mode.
func (r *Routine) EnableUpdates() {
	if !r.alive {
		misuse("enable updates", r, ErrDeadRoutine)
	}
	r.receivingUpdates = true
	r.sched.ActivateCoroutine(r)
}

func (r *Routine) DisableUpdates() {
	r.receivingUpdates = false
	if r.sched != nil {
		r.sched.DeactivateCoroutine(r)
	}
}

// DefaultPause is Base's pause hook: remember whether updates were on and
// turn them off.
func (r *Routine) DefaultPause() {
	r.wasReceivingUpdatesBeforePause = r.receivingUpdates
	r.DisableUpdates()
}

// DefaultResume is Base's resume hook: restore updates if they were on when
// the routine paused.
func (r *Routine) DefaultResume() {
	if r.wasReceivingUpdatesBeforePause {
		r.EnableUpdates()
	}
}

// EnableUpdatesOnResume asks a paused routine to receive updates once it
// resumes, without enabling them now.
func (r *Routine) EnableUpdatesOnResume() {
	r.wasReceivingUpdatesBeforePause = true
}

// Kill stops the routine and every routine started below it. It is safe to
// call more than once and from inside any hook.
func (r *Routine) Kill() {
	if !r.alive {
		return
	}
	r.alive = false
	r.receivingUpdates = false
	if r.sched != nil {
		r.sched.DeactivateCoroutine(r)
	}

	r.guard("exit", func() error {
		return r.behavior.OnExit(r)
	})

	for c := r.firstChild; c != nil; {
		next := c.nextSibling
		c.Kill()
		c = next
	}

	if p := r.parent; p != nil && p.alive {
		p.guard("child stopped", func() error {
			p.behavior.OnChildStopped(p, r)
			return nil
		})
	}

	r.stopped.Fire()
}

func (r *Routine) addChild(child *Routine) {
	child.prevSibling = nil
	child.nextSibling = nil
	if r.firstChild == nil {
		r.firstChild = child
		r.lastChild = child
	} else {
		r.lastChild.nextSibling = child
		child.prevSibling = r.lastChild
		r.lastChild = child
	}
	child.linked = true
	r.children++
}

// RemoveChild unlinks child from r's child list. Unlinked children keep
// their forward pointer so in-flight walks can continue past them.
func (r *Routine) RemoveChild(child *Routine) {
	if child == nil || child.parent != r || !child.linked {
		return
	}
	child.linked = false

	if child.prevSibling != nil {
		child.prevSibling.nextSibling = child.nextSibling
	}
	if child.nextSibling != nil {
		child.nextSibling.prevSibling = child.prevSibling
	}
	if r.firstChild == child {
		r.firstChild = child.nextSibling
	}
	if r.lastChild == child {
		r.lastChild = child.prevSibling
	}
	r.children--
}

// guard runs a hook, turning returned errors and panics into HookErrors
// reported to the scheduler. Usage errors are re-raised.
func (r *Routine) guard(hook string, fn func() error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if ue, ok := rec.(*UsageError); ok {
			panic(ue)
		}
		var err error
		if e, ok := rec.(error); ok {
			err = fmt.Errorf("panic: %w", e)
		} else {
			err = fmt.Errorf("panic: %v", rec)
		}
		r.sched.fault(r, &HookError{Hook: hook, Routine: r, Err: err})
	}()

	if err := fn(); err != nil {
		r.sched.fault(r, &HookError{Hook: hook, Routine: r, Err: err})
	}
}
