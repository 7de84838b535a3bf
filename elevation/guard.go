// Package elevation checks for administrator privilege before a build and
// relaunches the program elevated when it is missing.
package elevation

import (
	"fmt"
	"strings"
)

// Mode selects whether elevation is enforced.
type Mode string

const (
	// ModeRequired relaunches unelevated processes with elevated privilege.
	ModeRequired Mode = "required"
	// ModeSkip proceeds without checking.
	ModeSkip Mode = "skip"
)

// ParseMode maps a config value to a Mode. Empty means ModeRequired.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeRequired:
		return ModeRequired, nil
	case ModeSkip:
		return ModeSkip, nil
	default:
		return "", fmt.Errorf("unknown elevation mode %q (want %q or %q)", s, ModeRequired, ModeSkip)
	}
}

// Guard reports and acquires process privilege.
type Guard interface {
	// Elevated reports whether the current process has administrator rights.
	Elevated() (bool, error)
	// Relaunch starts the program again with elevated privilege, passing args.
	// On some platforms it replaces the current process and does not return.
	Relaunch(args []string) error
}

// Ensure decides whether the current process may run the pipeline.
//
// It returns proceed=true when mode is ModeSkip or the process is already
// elevated. Otherwise it relaunches through g and returns proceed=false;
// the caller should exit successfully without building. A privilege check
// or relaunch failure is returned as an error.
func Ensure(g Guard, mode Mode, args []string) (bool, error) {
	if mode == ModeSkip {
		return true, nil
	}

	elevated, err := g.Elevated()
	if err != nil {
		return false, fmt.Errorf("check privileges: %w", err)
	}
	if elevated {
		return true, nil
	}

	if err := g.Relaunch(args); err != nil {
		return false, fmt.Errorf("relaunch with elevated privileges: %w", err)
	}
	return false, nil
}
