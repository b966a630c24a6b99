// Package hostsfile owns read, replace and delete access to the OS hosts file.
//
// Every mutation streams the current file through a line filter into a temp
// file in the same directory, flushes and closes it, copies the untouched
// original to a ".bak" sibling and finally renames the temp file over the
// original. A crash at any point leaves either the original or the original
// plus a valid backup, never a half-written hosts file.
package hostsfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/starford/hostsub/internal/apperr"
)

// BackupSuffix is appended to the hosts path to name the backup sibling.
const BackupSuffix = ".bak"

var (
	locksMu sync.Mutex
	locks   = make(map[string]*sync.Mutex)
)

// lockFor returns the process-wide mutex guarding the file at abs.
func lockFor(abs string) *sync.Mutex {
	locksMu.Lock()
	defer locksMu.Unlock()
	mu, ok := locks[abs]
	if !ok {
		mu = &sync.Mutex{}
		locks[abs] = mu
	}
	return mu
}

// Store reads and rewrites one hosts file. Stores created for the same
// resolved path share a single mutex, and every mutation also holds an
// advisory lock on LockPath, so edits from other hostsub processes never
// interleave either.
type Store struct {
	path string
	mu   *sync.Mutex
	lock string
}

// New creates a Store for the hosts file at path. The file is not opened.
func New(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("hostsfile: resolve path: %w", err)
	}
	return &Store{path: abs, mu: lockFor(abs), lock: LockPath(abs)}, nil
}

// NewDefault creates a Store for the platform hosts file.
func NewDefault() (*Store, error) {
	return New(DefaultPath())
}

// Path returns the absolute hosts file path.
func (s *Store) Path() string { return s.path }

// BackupPath returns the path of the ".bak" sibling.
func (s *Store) BackupPath() string { return s.path + BackupSuffix }

// Read returns the file content with comment lines elided. Blank lines are kept.
func (s *Store) Read() (string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return "", ioErr("open", s.path, err)
	}
	defer f.Close()

	var b strings.Builder
	sc := newScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if isComment(line) {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return "", ioErr("read", s.path, err)
	}
	return b.String(), nil
}

// Upsert drops every active line containing name and appends one
// "<address>\t<name>" line per address. It reports whether any line was replaced.
func (s *Store) Upsert(name string, addresses []string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	if len(addresses) == 0 {
		return false, fmt.Errorf("hostsfile: no addresses for %q: %w", name, apperr.ErrInvalid)
	}
	for _, a := range addresses {
		if a == "" || strings.ContainsAny(a, " \t\r\n#") {
			return false, fmt.Errorf("hostsfile: bad address %q: %w", a, apperr.ErrInvalid)
		}
	}
	return s.mutate(name, func(w io.Writer) error {
		for _, a := range addresses {
			if _, err := io.WriteString(w, a+"\t"+name+newline); err != nil {
				return err
			}
		}
		return nil
	})
}

// Remove drops every active line containing name. It reports whether any
// line matched; when none did the file is left untouched and no backup is taken.
func (s *Store) Remove(name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	return s.mutate(name, nil)
}

// WithLock runs fn while holding the mutation locks for this file. The
// privilege broker uses it to serialize out-of-process edits with direct ones.
func (s *Store) WithLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := lockFile(s.lock)
	if err != nil {
		return ioErr("lock", s.lock, err)
	}
	defer unlock()
	return fn()
}

// Drain blocks until any in-flight mutation of this process has finished.
func (s *Store) Drain() {
	s.mu.Lock()
	defer s.mu.Unlock()
}

func (s *Store) mutate(name string, appendLines func(io.Writer) error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := lockFile(s.lock)
	if err != nil {
		return false, ioErr("lock", s.lock, err)
	}
	defer unlock()

	tmpName, matched, err := s.writeFiltered(name, appendLines)
	if err != nil {
		return false, err
	}
	if !matched && appendLines == nil {
		_ = os.Remove(tmpName)
		return false, nil
	}

	if err := copyFile(s.path, s.BackupPath()); err != nil {
		_ = os.Remove(tmpName)
		return false, ioErr("backup", s.BackupPath(), err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return false, ioErr("rename", s.path, err)
	}
	return matched, nil
}

// writeFiltered streams the hosts file into a fresh temp file, skipping lines
// that match name, then runs appendLines. Every handle is closed before it
// returns; on error the temp file is removed.
func (s *Store) writeFiltered(name string, appendLines func(io.Writer) error) (string, bool, error) {
	src, err := os.Open(s.path)
	if err != nil {
		return "", false, ioErr("open", s.path, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", false, ioErr("stat", s.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return "", false, ioErr("create temp", s.path, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	matched := false
	w := bufio.NewWriter(tmp)
	sc := newScanner(src)
	for sc.Scan() {
		line := sc.Text()
		if MatchesHost(line, name) {
			matched = true
			continue
		}
		if _, err := w.WriteString(line + newline); err != nil {
			return "", false, ioErr("write temp", tmpName, err)
		}
	}
	if err := sc.Err(); err != nil {
		return "", false, ioErr("read", s.path, err)
	}
	if appendLines != nil {
		if err := appendLines(w); err != nil {
			return "", false, ioErr("write temp", tmpName, err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", false, ioErr("flush temp", tmpName, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return "", false, ioErr("chmod temp", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		return "", false, ioErr("fsync temp", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return "", false, ioErr("close temp", tmpName, err)
	}
	success = true
	return tmpName, matched, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return sc
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, " \t\r\n#") {
		return fmt.Errorf("hostsfile: bad hostname %q: %w", name, apperr.ErrInvalid)
	}
	return nil
}

func ioErr(op, path string, err error) error {
	return fmt.Errorf("hostsfile: %s %s: %w: %w", op, path, apperr.ErrIO, err)
}
