package commit

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/pithecene-io/ffpkg/types"
)

// Sweep removes temporary files ending in marker from outputDir whose
// modification time is older than olderThan relative to now. It returns
// the base names of the removed files, sorted. Subdirectories are not
// visited. Sweeping an already clean directory is a no-op.
func Sweep(outputDir, marker string, olderThan time.Duration, now time.Time) ([]string, error) {
	return SweepFs(afero.NewOsFs(), outputDir, marker, olderThan, now)
}

// SweepFs is Sweep on fsys.
func SweepFs(fsys afero.Fs, outputDir, marker string, olderThan time.Duration, now time.Time) ([]string, error) {
	if marker == "" {
		return nil, types.NewError(types.ErrInvalidInput, "sweep", outputDir, errors.New("empty marker"))
	}

	// Readdir reports links as links, so they never look regular.
	infos, err := afero.ReadDir(fsys, outputDir)
	if err != nil {
		return nil, types.NewError(types.ErrIO, "read dir", outputDir, err)
	}

	cutoff := now.Add(-olderThan)
	var removed []string
	var errs []error
	for _, info := range infos {
		name := info.Name()
		if !info.Mode().IsRegular() || !strings.HasSuffix(name, marker) || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(outputDir, name)
		if err := fsys.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, types.NewError(types.ErrIO, "remove temp", path, err))
			continue
		}
		removed = append(removed, name)
	}

	sort.Strings(removed)
	return removed, errors.Join(errs...)
}
