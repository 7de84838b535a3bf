//go:build unix

package elevation

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

type systemGuard struct{}

// NewSystemGuard returns the guard for the host platform.
// On unix it checks the effective uid and relaunches through sudo.
func NewSystemGuard() Guard {
	return systemGuard{}
}

func (systemGuard) Elevated() (bool, error) {
	return unix.Geteuid() == 0, nil
}

// Relaunch replaces the current process with "sudo -- <self> args...".
// It only returns on failure.
func (systemGuard) Relaunch(args []string) error {
	sudo, err := exec.LookPath("sudo")
	if err != nil {
		return fmt.Errorf("sudo not available: %w", err)
	}
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	argv := append([]string{"sudo", "--", self}, args...)
	return unix.Exec(sudo, argv, os.Environ())
}
