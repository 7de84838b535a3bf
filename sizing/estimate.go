// Package sizing estimates how large an image built from a directory will be.
//
// The estimate is the sum of regular file sizes plus a fixed metadata
// margin. It is advisory: nothing compares it with the builder's output.
package sizing

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/pithecene-io/ffpkg/types"
)

// FromBytes computes an estimate from a raw byte count and a margin.
func FromBytes(actual, margin uint64) types.SizeEstimate {
	total := actual + margin
	return types.SizeEstimate{
		ActualBytes:      actual,
		MarginBytes:      margin,
		TotalBytes:       total,
		RoundedMegabytes: (total + types.MiB - 1) / types.MiB,
	}
}

// maxRootLinks bounds the chain of links followed at the root.
const maxRootLinks = 40

// Estimate walks dir on fsys and returns its size estimate.
// dir itself may be a link to a directory. Links below it are not followed
// and, like directories and special files, contribute zero bytes. Any
// traversal failure is returned as types.ErrIO.
func Estimate(fsys afero.Fs, dir string, margin uint64) (types.SizeEstimate, error) {
	var actual uint64

	root, err := resolveRoot(fsys, dir)
	if err != nil {
		return types.SizeEstimate{}, types.NewError(types.ErrIO, "resolve", dir, err)
	}
	info, err := lstat(fsys, root)
	if err != nil {
		return types.SizeEstimate{}, types.NewError(types.ErrIO, "stat", dir, err)
	}
	if !info.IsDir() {
		return types.SizeEstimate{}, types.NewError(types.ErrIO, "walk", dir, fmt.Errorf("not a directory"))
	}

	err = afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return types.NewError(types.ErrIO, "walk", path, err)
		}
		if info.Mode().IsRegular() {
			actual += uint64(info.Size())
		}
		return nil
	})
	if err != nil {
		return types.SizeEstimate{}, err
	}

	return FromBytes(actual, margin), nil
}

// EstimateDir is Estimate on the host filesystem.
func EstimateDir(dir string, margin uint64) (types.SizeEstimate, error) {
	return Estimate(afero.NewOsFs(), dir, margin)
}

func lstat(fsys afero.Fs, path string) (os.FileInfo, error) {
	if l, ok := fsys.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return fsys.Stat(path)
}

// resolveRoot follows links at dir so a linked source is walked as the
// directory it points to.
func resolveRoot(fsys afero.Fs, dir string) (string, error) {
	reader, ok := fsys.(afero.LinkReader)
	if !ok {
		return dir, nil
	}
	for range maxRootLinks {
		info, err := lstat(fsys, dir)
		if err != nil {
			return "", err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return dir, nil
		}
		target, err := reader.ReadlinkIfPossible(dir)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(dir), target)
		}
		dir = target
	}
	return "", fmt.Errorf("more than %d links", maxRootLinks)
}
