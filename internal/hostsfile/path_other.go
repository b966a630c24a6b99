//go:build !windows

package hostsfile

const newline = "\n"

// DefaultPath returns the system hosts file location.
func DefaultPath() string {
	return "/etc/hosts"
}
