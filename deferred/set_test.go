package deferred_test

import (
	"testing"

	"github.com/delaneyj/hcoroutines/deferred"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRemoveUnlocked(t *testing.T) {
	s := deferred.New[int]()
	s.Add(1)
	s.Add(2)
	s.Add(2)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains(1))

	s.Remove(1)
	assert.False(t, s.Contains(1))
	assert.Equal(t, 1, s.Len())
}

func TestMutationsDeferredWhileLocked(t *testing.T) {
	s := deferred.New[string]()
	s.Add("a")
	s.Add("b")

	s.Lock()
	s.Add("c")
	s.Remove("a")
	assert.True(t, s.Locked())
	assert.True(t, s.Contains("a"), "removal must wait for unlock")
	assert.False(t, s.Contains("c"), "insertion must wait for unlock")
	assert.True(t, s.Pending("c"))
	s.Unlock()

	assert.False(t, s.Locked())
	assert.ElementsMatch(t, []string{"b", "c"}, s.ToSlice())
}

func TestPendingAddAndRemoveCancel(t *testing.T) {
	s := deferred.New[int]()
	s.Add(1)

	s.Lock()
	s.Add(2)
	s.Remove(2)
	s.Remove(1)
	s.Add(1)
	s.Unlock()

	assert.ElementsMatch(t, []int{1}, s.ToSlice())
}

func TestNestedLocksFlushOnOutermostUnlock(t *testing.T) {
	s := deferred.New[int]()
	s.Lock()
	s.Lock()
	s.Add(1)
	s.Unlock()
	assert.False(t, s.Contains(1))
	s.Unlock()
	assert.True(t, s.Contains(1))

	// unbalanced unlocks are ignored
	s.Unlock()
	assert.False(t, s.Locked())
}

func TestEachIsStableUnderMutation(t *testing.T) {
	s := deferred.New[int]()
	for i := 0; i < 10; i++ {
		s.Add(i)
	}

	seen := map[int]int{}
	s.Each(func(v int) bool {
		seen[v]++
		// churn the set from inside the walk
		s.Remove(v)
		s.Add(v + 100)
		s.Remove((v + 1) % 10)
		return true
	})

	require.Len(t, seen, 10, "every original member visited")
	for v, n := range seen {
		assert.Equal(t, 1, n, "member %d visited more than once", v)
	}
	assert.Equal(t, 10, s.Len())
	for i := 0; i < 10; i++ {
		assert.True(t, s.Contains(i+100))
		assert.False(t, s.Contains(i))
	}
}

func TestEachStopsEarly(t *testing.T) {
	s := deferred.New[int]()
	s.Add(1)
	s.Add(2)
	s.Add(3)

	calls := 0
	s.Each(func(int) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)
	assert.False(t, s.Locked())
}

func TestEachUnlocksOnPanic(t *testing.T) {
	s := deferred.New[int]()
	s.Add(1)

	assert.Panics(t, func() {
		s.Each(func(v int) bool {
			s.Add(2)
			panic("boom")
		})
	})
	assert.False(t, s.Locked())
	assert.True(t, s.Contains(2))
}

func TestClear(t *testing.T) {
	s := deferred.New[int]()
	s.Add(1)
	s.Add(2)

	s.Lock()
	s.Add(3)
	s.Clear()
	assert.Equal(t, 2, s.Len())
	s.Unlock()
	assert.Equal(t, 0, s.Len())

	s.Add(4)
	s.Clear()
	assert.Equal(t, 0, s.Len())
}
