//go:build windows

package hostsfile

import (
	"os"
	"path/filepath"
)

const newline = "\r\n"

// DefaultPath returns %SystemRoot%\System32\drivers\etc\hosts.
func DefaultPath() string {
	root := os.Getenv("SystemRoot")
	if root == "" {
		root = `C:\Windows`
	}
	return filepath.Join(root, "System32", "drivers", "etc", "hosts")
}
