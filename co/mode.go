package co

import (
	"fmt"
	"strings"
)

// ProcessMode selects which tick drives a routine's Update.
type ProcessMode uint8

const (
	// ProcessInherit takes the parent's mode, or the scheduler default for
	// roots.
	ProcessInherit ProcessMode = iota
	// ProcessPrimary updates during Scheduler.Tick (the frame tick).
	ProcessPrimary
	// ProcessSecondary updates during Scheduler.SecondaryTick (e.g. physics).
	ProcessSecondary
)

func (m ProcessMode) String() string {
	switch m {
	case ProcessInherit:
		return "inherit"
	case ProcessPrimary:
		return "primary"
	case ProcessSecondary:
		return "secondary"
	default:
		return fmt.Sprintf("ProcessMode(%d)", uint8(m))
	}
}

func (m ProcessMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *ProcessMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "inherit", "":
		*m = ProcessInherit
	case "primary", "process", "frame":
		*m = ProcessPrimary
	case "secondary", "physics":
		*m = ProcessSecondary
	default:
		return fmt.Errorf("unknown process mode %q", text)
	}
	return nil
}

// RunMode decides whether a routine runs while the host is paused.
type RunMode uint8

const (
	// RunInherit takes the parent's mode, or the scheduler default for roots.
	RunInherit RunMode = iota
	// RunPausable runs only while the host is not paused.
	RunPausable
	// RunWhenPaused runs only while the host is paused.
	RunWhenPaused
	// RunAlways ignores the pause flag.
	RunAlways
)

func (m RunMode) String() string {
	switch m {
	case RunInherit:
		return "inherit"
	case RunPausable:
		return "pausable"
	case RunWhenPaused:
		return "when_paused"
	case RunAlways:
		return "always"
	default:
		return fmt.Sprintf("RunMode(%d)", uint8(m))
	}
}

func (m RunMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *RunMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "inherit", "":
		*m = RunInherit
	case "pausable":
		*m = RunPausable
	case "when_paused", "whenpaused", "when-paused":
		*m = RunWhenPaused
	case "always":
		*m = RunAlways
	default:
		return fmt.Errorf("unknown run mode %q", text)
	}
	return nil
}

// shouldRun resolves the mode against the host pause flag. Inherit never
// reaches here on an attached routine.
func (m RunMode) shouldRun(paused bool) bool {
	switch m {
	case RunAlways:
		return true
	case RunWhenPaused:
		return paused
	default:
		return !paused
	}
}
