package fs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/eykd/casecheck-go/internal/lock"
)

// Locker guards a critical section.
type Locker interface {
	Do(ctx context.Context, fn func() error) error
}

// ReportWriter writes a report file atomically under an advisory lock.
type ReportWriter struct {
	FS   afero.Fs
	Path string
	// Locker defaults to a lock file beside Path.
	Locker Locker
}

// Write replaces the report with data. Readers never observe a partial
// report: data goes to a temporary file in the same directory which is
// then renamed over Path.
func (w *ReportWriter) Write(ctx context.Context, data []byte) error {
	// The default lock file lives beside the report, so the directory must exist first.
	dir := filepath.Dir(w.Path)
	if err := w.FS.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	locker := w.Locker
	if locker == nil {
		locker = lock.ForReport(w.Path)
	}
	return locker.Do(ctx, func() error { return w.write(data) })
}

func (w *ReportWriter) write(data []byte) error {
	dir := filepath.Dir(w.Path)
	tmp, err := afero.TempFile(w.FS, dir, "."+filepath.Base(w.Path)+".*")
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = w.FS.Remove(tmpName)
		return fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = w.FS.Remove(tmpName)
		return fmt.Errorf("writing report: %w", err)
	}
	if err := w.FS.Chmod(tmpName, 0o644); err != nil {
		_ = w.FS.Remove(tmpName)
		return fmt.Errorf("writing report: %w", err)
	}
	if err := w.FS.Rename(tmpName, w.Path); err != nil {
		_ = w.FS.Remove(tmpName)
		return fmt.Errorf("replacing report %s: %w", w.Path, err)
	}
	return nil
}
