//go:build !unix && !windows

package elevation

import "errors"

type systemGuard struct{}

// NewSystemGuard returns a guard that cannot determine privilege.
func NewSystemGuard() Guard {
	return systemGuard{}
}

func (systemGuard) Elevated() (bool, error) {
	return false, errors.New("privilege check not supported on this platform")
}

func (systemGuard) Relaunch([]string) error {
	return errors.New("relaunch not supported on this platform")
}
