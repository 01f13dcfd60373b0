// Package co is a cooperative routine scheduler for frame-driven hosts.
//
// Routines form a tree. A routine started on the Scheduler is a root; a
// routine started on another routine is its child and dies with it. Nothing
// runs concurrently: the host calls Scheduler.Tick once per frame and
// Scheduler.SecondaryTick once per fixed step, and every hook runs inside
// those calls or inside StartCoroutine.
//
// Each routine resolves a ProcessMode, choosing which tick updates it, and a
// RunMode, choosing how it reacts to the host's pause flag. Both default to
// the parent's modes.
//
// Routine kinds are Behaviors. The package provides Sequence, Parallel,
// Race, Repeat, Timeout, Wait, WaitUntil, WaitWhile, WaitForSignal, Await,
// Tween and Coroutine, which drives an iter.Seq[any]:
//
//	sched.StartCoroutine(co.Coroutine(func(yield func(any) bool) {
//		if !yield(co.Wait(time.Second)) {
//			return
//		}
//		fmt.Println("one second later")
//	}))
package co
