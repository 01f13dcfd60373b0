package co_test

import (
	"sync"
	"testing"
	"time"

	"github.com/delaneyj/hcoroutines/clock"
	"github.com/delaneyj/hcoroutines/co"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolMutationDuringTick(t *testing.T) {
	s, _ := newScheduler(t, nil)

	var aCount, bCount, cCount int
	b := s.StartCoroutine(updater(&bCount))
	a := s.StartCoroutine(co.FromHooks(co.Hooks{
		Start: func(r *co.Routine) { r.EnableUpdates() },
		Update: func(r *co.Routine) error {
			aCount++
			if aCount == 1 {
				b.Kill()
				s.StartCoroutine(updater(&cCount))
			}
			// toggling itself must neither drop nor duplicate it
			r.DisableUpdates()
			r.EnableUpdates()
			return nil
		},
	}))

	s.Tick(time.Millisecond)
	assert.Equal(t, 1, aCount)
	assert.LessOrEqual(t, bCount, 1)
	assert.Zero(t, cCount, "routines enabled during a tick start on the next one")
	bAfter := bCount

	s.Tick(time.Millisecond)
	assert.Equal(t, 2, aCount)
	assert.Equal(t, bAfter, bCount)
	assert.Equal(t, 1, cCount)
	assert.True(t, a.ShouldReceiveUpdates())
	assert.Equal(t, 2, s.Stats().Primary)
}

func TestPauseStopsPausableUpdates(t *testing.T) {
	var flag co.PauseFlag
	s, _ := newScheduler(t, &flag)

	var count int
	r := s.StartCoroutine(updater(&count))

	s.Tick(time.Millisecond)
	require.Equal(t, 1, count)

	flag.SetPaused(true)
	s.Tick(time.Millisecond)
	s.Tick(time.Millisecond)
	assert.Equal(t, 1, count)
	assert.True(t, s.Paused())
	assert.False(t, r.IsRunning())

	flag.SetPaused(false)
	s.Tick(time.Millisecond)
	assert.Equal(t, 2, count)
	assert.True(t, r.IsRunning())
}

func TestRunModesAgainstPause(t *testing.T) {
	var flag co.PauseFlag
	s, _ := newScheduler(t, &flag)

	var pausedCount, alwaysCount, starts int
	whenPaused := co.FromHooks(co.Hooks{
		Start: func(r *co.Routine) {
			starts++
			r.EnableUpdates()
		},
		Update: func(*co.Routine) error {
			pausedCount++
			return nil
		},
	}).WithRunMode(co.RunWhenPaused)
	s.StartCoroutine(whenPaused)
	s.StartCoroutine(updater(&alwaysCount).WithRunMode(co.RunAlways))

	s.Tick(time.Millisecond)
	assert.Zero(t, starts, "when-paused routines wait for a pause to start")
	assert.Equal(t, 1, alwaysCount)

	flag.SetPaused(true)
	s.Tick(time.Millisecond)
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, pausedCount)
	assert.Equal(t, 2, alwaysCount)

	flag.SetPaused(false)
	s.Tick(time.Millisecond)
	assert.Equal(t, 1, pausedCount)
	assert.Equal(t, 3, alwaysCount)
	assert.False(t, whenPaused.IsRunning())
}

func TestPauseHooksRunOncePerTransition(t *testing.T) {
	var flag co.PauseFlag
	s, _ := newScheduler(t, &flag)

	var pauses, resumes int
	hooks := co.Hooks{
		Pause:  func(*co.Routine) { pauses++ },
		Resume: func(*co.Routine) { resumes++ },
	}
	root := s.StartCoroutine(co.FromHooks(hooks))
	root.StartCoroutine(co.FromHooks(hooks))

	flag.SetPaused(true)
	s.Tick(time.Millisecond)
	s.Tick(time.Millisecond)
	flag.SetPaused(false)
	s.Tick(time.Millisecond)

	assert.Equal(t, 2, pauses)
	assert.Equal(t, 2, resumes)
}

func TestStartWhilePausedDefersStart(t *testing.T) {
	var flag co.PauseFlag
	flag.SetPaused(true)
	s, _ := newScheduler(t, &flag)
	require.True(t, s.Paused())

	var count int
	r := s.StartCoroutine(updater(&count))
	s.Tick(time.Millisecond)
	assert.False(t, r.IsRunning())
	assert.Zero(t, count)

	flag.SetPaused(false)
	s.Tick(time.Millisecond)
	assert.Equal(t, 1, count)
}

func TestSecondaryTick(t *testing.T) {
	s, _ := newScheduler(t, nil)

	var primary, secondary int
	s.StartCoroutine(updater(&primary))
	s.StartCoroutine(updater(&secondary).WithProcessMode(co.ProcessSecondary))

	st := s.Stats()
	assert.Equal(t, 1, st.Primary)
	assert.Equal(t, 1, st.Secondary)

	s.Tick(16 * time.Millisecond)
	assert.Equal(t, 1, primary)
	assert.Zero(t, secondary)
	assert.Equal(t, 16*time.Millisecond, s.DeltaTime())

	s.SecondaryTick(20 * time.Millisecond)
	s.SecondaryTick(20 * time.Millisecond)
	assert.Equal(t, 1, primary)
	assert.Equal(t, 2, secondary)
	assert.Equal(t, 20*time.Millisecond, s.SecondaryDeltaTime())

	st = s.Stats()
	assert.Equal(t, uint64(1), st.Frames)
	assert.Equal(t, uint64(2), st.SecondaryTicks)
}

func TestRootsAndKillAll(t *testing.T) {
	s, _ := newScheduler(t, nil)
	a := s.StartCoroutine(co.New(nil))
	b := s.StartCoroutine(co.New(nil))
	s.StartCoroutine(co.Do(nil))

	assert.ElementsMatch(t, []*co.Routine{a, b}, s.Roots())

	a.Kill()
	assert.ElementsMatch(t, []*co.Routine{b}, s.Roots())

	c := s.StartCoroutine(co.New(nil))
	c.StartCoroutine(co.New(nil))
	s.KillAll()
	assert.Empty(t, s.Roots())
	assert.False(t, b.IsAlive())
	assert.False(t, c.IsAlive())
}

func TestPostRunsOnNextTick(t *testing.T) {
	s, _ := newScheduler(t, nil)

	var wg sync.WaitGroup
	ran := 0
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Post(func() { ran++ })
		}()
	}
	s.Post(func() { panic("posted") })
	wg.Wait()
	assert.Zero(t, ran)

	s.Tick(time.Millisecond)
	assert.Equal(t, 10, ran)

	s.Tick(time.Millisecond)
	assert.Equal(t, 10, ran)
}

func TestTimeScale(t *testing.T) {
	timers := clock.New()
	timers.SetTimeScale(2)
	s, _ := newScheduler(t, nil, co.WithTimers(timers))

	scaled := s.StartCoroutine(co.Wait(time.Second))
	unscaled := s.StartCoroutine(co.WaitUnscaled(time.Second))
	assert.Equal(t, 2, s.Stats().Timers)

	s.Tick(600 * time.Millisecond)
	assert.False(t, scaled.IsAlive())
	assert.True(t, unscaled.IsAlive())

	s.Tick(600 * time.Millisecond)
	assert.False(t, unscaled.IsAlive())
	assert.Zero(t, s.Stats().Timers)
}
