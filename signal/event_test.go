package signal_test

import (
	"testing"

	"github.com/delaneyj/hcoroutines/signal"
	"github.com/stretchr/testify/assert"
)

func TestSubscribeFiresInOrder(t *testing.T) {
	var e signal.Event
	var got []int
	e.Subscribe(func() { got = append(got, 1) })
	e.Subscribe(func() { got = append(got, 2) })
	e.Subscribe(func() { got = append(got, 3) })

	e.Fire()
	e.Fire()
	assert.Equal(t, []int{1, 2, 3, 1, 2, 3}, got)
	assert.Equal(t, 3, e.Len())
}

func TestOnceFiresOnce(t *testing.T) {
	var e signal.Event
	calls := 0
	cancel := e.Once(func() { calls++ })

	e.Fire()
	e.Fire()
	cancel()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, e.Len())
}

func TestCancelBeforeFire(t *testing.T) {
	var e signal.Event
	calls := 0
	cancel := e.Subscribe(func() { calls++ })
	cancel()
	cancel()
	e.Fire()
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, e.Len())
}

func TestCancelDuringFire(t *testing.T) {
	var e signal.Event
	var got []string
	var cancelB func()
	e.Subscribe(func() {
		got = append(got, "a")
		cancelB()
	})
	cancelB = e.Subscribe(func() { got = append(got, "b") })
	e.Subscribe(func() { got = append(got, "c") })

	e.Fire()
	assert.Equal(t, []string{"a", "c"}, got)
}

func TestSubscribeDuringFireWaitsForNextFire(t *testing.T) {
	var e signal.Event
	var got []string
	e.Once(func() {
		got = append(got, "first")
		e.Subscribe(func() { got = append(got, "late") })
	})

	e.Fire()
	assert.Equal(t, []string{"first"}, got)
	e.Fire()
	assert.Equal(t, []string{"first", "late"}, got)
}

func TestClear(t *testing.T) {
	var e signal.Event
	calls := 0
	e.Subscribe(func() {
		calls++
		e.Clear()
	})
	e.Subscribe(func() { calls++ })

	e.Fire()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, e.Len())
}

func TestBus(t *testing.T) {
	b := signal.NewBus()
	var got []string
	b.On("hit", func() { got = append(got, "on") })
	cancel := b.Once("hit", func() { got = append(got, "once") })
	assert.Equal(t, 2, b.Listeners("hit"))

	b.Emit("miss")
	b.Emit("hit")
	b.Emit("hit")
	cancel()

	assert.Equal(t, []string{"on", "once", "on"}, got)
	assert.Equal(t, 1, b.Listeners("hit"))
	assert.Equal(t, 0, b.Listeners("nothing"))
}
