// Package commit implements the temp-file-then-rename protocol that puts a
// built image in place.
//
// A Transaction owns one temporary file in the output directory. The final
// path is only ever touched by a single rename, so readers observe either
// the previous image or the new one, never a partial file.
package commit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/pithecene-io/ffpkg/log"
	"github.com/pithecene-io/ffpkg/metrics"
	"github.com/pithecene-io/ffpkg/types"
)

// Transaction is a single commit attempt.
// It is safe to call Rollback after Commit; the second call is a no-op.
type Transaction struct {
	mu       sync.Mutex
	fs       afero.Fs
	tempPath string
	state    types.CommitState
	logger   *log.Logger
	metrics  *metrics.Collector
}

// Option configures a Transaction.
type Option func(*Transaction)

// WithLogger routes cleanup diagnostics to logger.
func WithLogger(logger *log.Logger) Option {
	return func(t *Transaction) { t.logger = logger }
}

// WithMetrics records commits, rollbacks and cleanup failures on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(t *Transaction) { t.metrics = c }
}

// WithFs runs the protocol on fsys instead of the host filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(t *Transaction) { t.fs = fsys }
}

// Begin reserves a unique temporary file "<baseName>_<random><marker>" in
// outputDir. The file is created empty and closed so the builder can
// overwrite it.
func Begin(outputDir, baseName, marker string, opts ...Option) (*Transaction, error) {
	t := &Transaction{fs: afero.NewOsFs(), state: types.CommitPending}
	for _, opt := range opts {
		opt(t)
	}

	f, err := afero.TempFile(t.fs, outputDir, baseName+"_*"+marker)
	if err != nil {
		return nil, types.NewError(types.ErrIO, "create temp", outputDir, err)
	}
	t.tempPath = f.Name()
	if err := f.Close(); err != nil {
		_ = t.fs.Remove(t.tempPath)
		return nil, types.NewError(types.ErrIO, "close temp", t.tempPath, err)
	}
	return t, nil
}

// TempPath returns the reserved temporary path.
func (t *Transaction) TempPath() string {
	return t.tempPath
}

// State returns the current lifecycle state.
func (t *Transaction) State() types.CommitState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Commit renames the temporary file onto finalPath, replacing an existing
// regular file. A directory at finalPath is refused.
func (t *Transaction) Commit(finalPath string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != types.CommitPending {
		return types.NewError(types.ErrCommitFailure, "commit", finalPath,
			fmt.Errorf("transaction already %s", t.state))
	}

	if info, err := lstat(t.fs, finalPath); err == nil && info.IsDir() {
		return types.NewError(types.ErrCommitFailure, "commit", finalPath,
			errors.New("destination is a directory"))
	}

	if err := t.fs.Rename(t.tempPath, finalPath); err != nil {
		// Some platforms refuse to rename over an existing file.
		info, statErr := lstat(t.fs, finalPath)
		if statErr != nil || !info.Mode().IsRegular() {
			return types.NewError(types.ErrCommitFailure, "rename", finalPath, err)
		}
		if rmErr := t.fs.Remove(finalPath); rmErr != nil {
			return types.NewError(types.ErrCommitFailure, "remove existing", finalPath, rmErr)
		}
		if err := t.fs.Rename(t.tempPath, finalPath); err != nil {
			return types.NewError(types.ErrCommitFailure, "rename", finalPath, err)
		}
	}

	t.state = types.CommitCommitted
	t.metrics.IncCommit()
	t.logger.Debug("image committed", map[string]any{
		"temp_path":  t.tempPath,
		"final_path": finalPath,
	})
	return nil
}

// Rollback deletes the temporary file if it still exists.
// It does nothing once the transaction is committed or rolled back.
func (t *Transaction) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != types.CommitPending {
		return nil
	}
	t.state = types.CommitRolledBack
	t.metrics.IncRollback()

	if err := t.fs.Remove(t.tempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		t.metrics.IncCleanupFailure()
		return types.NewError(types.ErrIO, "remove temp", t.tempPath, err)
	}
	return nil
}

// Run executes build against a fresh temporary file and commits the result
// to finalPath. On any failure the temporary file is removed and the
// original error is returned; finalPath is left untouched. A rollback
// failure is logged and never replaces the original error.
func Run(outputDir, baseName, marker, finalPath string, build func(tempPath string) error, opts ...Option) (string, error) {
	tx, err := Begin(outputDir, baseName, marker, opts...)
	if err != nil {
		return "", err
	}

	if err := build(tx.TempPath()); err != nil {
		tx.rollbackLogged(err)
		return "", err
	}

	if err := tx.Commit(finalPath); err != nil {
		tx.rollbackLogged(err)
		return "", err
	}

	return finalPath, nil
}

func (t *Transaction) rollbackLogged(cause error) {
	if err := t.Rollback(); err != nil {
		t.logger.Warn("temporary file cleanup failed", map[string]any{
			"temp_path": t.tempPath,
			"error":     err.Error(),
			"cause":     cause.Error(),
		})
		return
	}
	t.logger.Debug("temporary file removed", map[string]any{
		"temp_path": filepath.Base(t.tempPath),
	})
}

func lstat(fsys afero.Fs, path string) (os.FileInfo, error) {
	if l, ok := fsys.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return fsys.Stat(path)
}
