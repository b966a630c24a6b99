// Package watch reports edits to the hosts file made outside this process.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/hostsub/internal/checksum"
)

// DefaultDebounce coalesces the burst of events a rename-based rewrite
// produces (create tmp, write, rename, chmod).
const DefaultDebounce = 200 * time.Millisecond

// Checksums persists the last known content checksum per path.
type Checksums interface {
	GetChecksum(path string) (string, error)
	SetChecksum(path, sum string) error
}

// ChangeFunc is called with the watched path after an external edit.
type ChangeFunc func(path string)

// Sync records the current checksum of path and reports whether it differs
// from the stored one. A missing stored value counts as unchanged.
func Sync(path string, sums Checksums) (bool, error) {
	cur, err := checksum.File(path)
	if err != nil {
		return false, err
	}
	prev, err := sums.GetChecksum(path)
	if err != nil {
		return false, err
	}
	if prev == cur {
		return false, nil
	}
	if err := sums.SetChecksum(path, cur); err != nil {
		return false, err
	}
	return prev != "", nil
}

// Watch observes the directory holding path, since an atomic rename swaps
// the inode, and calls cb when the file content no longer matches the
// stored checksum. Writes made through the service update the checksum
// first and therefore do not trigger cb. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, sums Checksums, debounce time.Duration, logger *slog.Logger, cb ChangeFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	path = filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	if changed, err := Sync(path, sums); err != nil {
		logger.Warn("watch: initial sync failed", slog.String("path", path), slog.String("error", err.Error()))
	} else if changed {
		logger.Info("watch: hosts file changed while offline", slog.String("path", path))
		if cb != nil {
			cb(path)
		}
	}

	logger.Info("watch: started", slog.String("path", path))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-fire:
			changed, err := Sync(path, sums)
			if err != nil {
				logger.Warn("watch: sync failed", slog.String("path", path), slog.String("error", err.Error()))
				continue
			}
			if !changed {
				continue
			}
			logger.Info("watch: external edit detected", slog.String("path", path))
			if cb != nil {
				cb(path)
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch: error", slog.String("error", werr.Error()))
		}
	}
}
