package hostsfile

import (
	"os"
	"path/filepath"

	"github.com/starford/hostsub/internal/checksum"
)

// LockPath returns the advisory lock file shared by every hostsub process
// editing the hosts file at abs. It lives in the temp dir because the hosts
// file itself is swapped by rename and its directory is usually root-owned.
// Lock files are never removed; deleting one would let a waiter lock a stale inode.
func LockPath(abs string) string {
	return filepath.Join(os.TempDir(), "hostsub-"+checksum.Sum([]byte(abs))[:16]+".lock")
}

// openLockFile opens or creates the lock file. A lock file created by another
// user may be read-only for us; the advisory lock works on either handle.
func openLockFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err == nil {
		return f, nil
	}
	if ro, roErr := os.Open(path); roErr == nil {
		return ro, nil
	}
	return nil, err
}
