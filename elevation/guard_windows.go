//go:build windows

package elevation

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/windows"
)

type systemGuard struct{}

// NewSystemGuard returns the guard for the host platform.
// On windows it checks the process token and relaunches through the
// "runas" shell verb, which shows the UAC prompt.
func NewSystemGuard() Guard {
	return systemGuard{}
}

func (systemGuard) Elevated() (bool, error) {
	return windows.GetCurrentProcessToken().IsElevated(), nil
}

func (systemGuard) Relaunch(args []string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = windows.EscapeArg(a)
	}

	verb, err := windows.UTF16PtrFromString("runas")
	if err != nil {
		return err
	}
	file, err := windows.UTF16PtrFromString(self)
	if err != nil {
		return err
	}
	params, err := windows.UTF16PtrFromString(strings.Join(quoted, " "))
	if err != nil {
		return err
	}
	dir, err := windows.UTF16PtrFromString(cwd)
	if err != nil {
		return err
	}

	return windows.ShellExecute(0, verb, file, params, dir, windows.SW_NORMAL)
}
