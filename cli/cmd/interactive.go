package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ffpkg/cli/tui"
)

// newAsker is overridable in tests.
var newAsker = func(c *cli.Context) tui.Asker {
	return tui.NewAsker(os.Stdin, outWriter(c))
}

func interactiveAction(c *cli.Context) error {
	s, err := loadSettings(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
	}
	defer func() { _ = s.logger.Sync() }()

	if err := ensureElevated(c, s); err != nil {
		return err
	}

	wd, err := os.Getwd()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
	}

	s.status(c).Info("=== Package a directory into an %s image ===", s.cfg.Image.Extension)
	source, output, err := promptPaths(newAsker(c), wd)
	if errors.Is(err, tui.ErrCancelled) {
		return cli.Exit("Cancelled.", exitFailure)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
	}

	return execute(c, s, source, output, true)
}

// promptPaths asks for the source directory until a valid one is given,
// then for the output directory, which defaults to wd.
func promptPaths(a tui.Asker, wd string) (source, output string, err error) {
	source, err = a.Ask(tui.Question{
		Title:       "Enter the directory to package:",
		Placeholder: "/path/to/dump",
		Validate:    validateSourceDir,
	})
	if err != nil {
		return "", "", err
	}

	output, err = a.Ask(tui.Question{
		Title:       "Enter the output directory (default: current directory):",
		Default:     wd,
		Placeholder: wd,
	})
	if err != nil {
		return "", "", err
	}
	return source, output, nil
}

func validateSourceDir(path string) error {
	if path == "" {
		return errors.New("path cannot be empty")
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return errors.New("directory is not valid")
	}
	return nil
}
