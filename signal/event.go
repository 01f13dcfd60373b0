// Package signal holds the small single-threaded notification primitives the
// scheduler and its routines subscribe to.
package signal

// Event is an ordered list of listeners. Listeners are kept in an intrusive
// doubly linked list so a listener can unsubscribe itself, or others, while
// the event is firing.
type Event struct {
	first, last *listener
	count       int
	// sequence handed to the next listener; Fire only calls listeners
	// subscribed before it started
	seq uint64
}

type listener struct {
	fn         func()
	once       bool
	removed    bool
	seq        uint64
	prev, next *listener
}

// Subscribe calls fn every time the event fires until cancel is called.
func (e *Event) Subscribe(fn func()) (cancel func()) {
	return e.add(fn, false)
}

// Once calls fn the next time the event fires. Cancelling afterwards is a
// no-op.
func (e *Event) Once(fn func()) (cancel func()) {
	return e.add(fn, true)
}

func (e *Event) add(fn func(), once bool) func() {
	l := &listener{fn: fn, once: once, seq: e.seq}
	e.seq++

	if e.last == nil {
		e.first = l
		e.last = l
	} else {
		e.last.next = l
		l.prev = e.last
		e.last = l
	}
	e.count++

	return func() { e.remove(l) }
}

func (e *Event) remove(l *listener) {
	if l.removed {
		return
	}
	l.removed = true

	if l.prev != nil {
		l.prev.next = l.next
	}
	if l.next != nil {
		l.next.prev = l.prev
	}
	if e.first == l {
		e.first = l.next
	}
	if e.last == l {
		e.last = l.prev
	}
	e.count--
}

// Fire calls every listener in subscription order. Listeners added while
// firing are not called until the next Fire.
func (e *Event) Fire() {
	limit := e.seq
	for l := e.first; l != nil; {
		next := l.next
		if l.seq >= limit {
			break
		}
		if !l.removed {
			if l.once {
				e.remove(l)
			}
			l.fn()
		}
		l = next
	}
}

// Len is the number of live listeners.
func (e *Event) Len() int {
	return e.count
}

// Clear drops every listener.
func (e *Event) Clear() {
	for l := e.first; l != nil; l = l.next {
		l.removed = true
	}
	e.first, e.last = nil, nil
	e.count = 0
}
