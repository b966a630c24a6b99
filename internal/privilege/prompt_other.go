//go:build !darwin && !windows

package privilege

// promptCommand runs the script through polkit's pkexec, which shows the
// desktop authentication dialog.
func promptCommand(script string) (string, []string) {
	return "pkexec", []string{"/bin/sh", script}
}
