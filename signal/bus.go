package signal

// Bus is a set of named events, created on first use.
type Bus struct {
	events map[string]*Event
}

func NewBus() *Bus {
	return &Bus{events: map[string]*Event{}}
}

func (b *Bus) event(name string) *Event {
	e, ok := b.events[name]
	if !ok {
		e = &Event{}
		b.events[name] = e
	}
	return e
}

// On subscribes fn to every emission of name.
func (b *Bus) On(name string, fn func()) (cancel func()) {
	return b.event(name).Subscribe(fn)
}

// Once subscribes fn to the next emission of name.
func (b *Bus) Once(name string, fn func()) (cancel func()) {
	return b.event(name).Once(fn)
}

// Emit fires name. Emitting an event nobody listens to is a no-op.
func (b *Bus) Emit(name string) {
	if e, ok := b.events[name]; ok {
		e.Fire()
	}
}

// Listeners is the number of live subscriptions on name.
func (b *Bus) Listeners(name string) int {
	if e, ok := b.events[name]; ok {
		return e.Len()
	}
	return 0
}
