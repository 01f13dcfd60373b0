package co_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/hcoroutines/co"
	"github.com/delaneyj/hcoroutines/logging"
)

type recorder struct {
	errs []error
}

func (rec *recorder) handle(_ *co.Routine, err error) {
	rec.errs = append(rec.errs, err)
}

func newScheduler(t *testing.T, host co.PauseSource, opts ...co.Option) (*co.Scheduler, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]co.Option{
		co.WithLogger(logging.Discard()),
		co.WithErrorHandler(rec.handle),
	}, opts...)
	return co.NewScheduler(host, opts...), rec
}

// usagePanic runs fn and returns the UsageError it panicked with, if any.
func usagePanic(fn func()) (ue *co.UsageError) {
	defer func() {
		if rec := recover(); rec != nil {
			err, ok := rec.(error)
			if !ok || !errors.As(err, &ue) {
				panic(rec)
			}
		}
	}()
	fn()
	return nil
}

// updater counts updates and keeps receiving them once started.
func updater(count *int) *co.Routine {
	return co.FromHooks(co.Hooks{
		Start: func(r *co.Routine) { r.EnableUpdates() },
		Update: func(r *co.Routine) error {
			*count++
			return nil
		},
	})
}

func stopCount(r *co.Routine) *int {
	n := new(int)
	r.OnStopped(func() { *n++ })
	return n
}
