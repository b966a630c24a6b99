// Package privilege decides whether the hosts file can be written in-process
// and, when it cannot, replays the mutation through the platform's elevation
// prompt (osascript / pkexec on Unix-like systems, a RunAs PowerShell on Windows).
package privilege

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/starford/hostsub/internal/apperr"
)

// Kind selects the hosts mutation to perform.
type Kind string

const (
	KindUpsert Kind = "upsert"
	KindRemove Kind = "remove"
)

// Operation is one hosts mutation request.
type Operation struct {
	Kind      Kind
	Hostname  string
	Addresses []string // upsert only
}

// Validate rejects operations whose fields could break out of the generated scripts.
func (op Operation) Validate() error {
	switch op.Kind {
	case KindUpsert:
		if len(op.Addresses) == 0 {
			return fmt.Errorf("privilege: upsert without addresses: %w", apperr.ErrInvalid)
		}
	case KindRemove:
	default:
		return fmt.Errorf("privilege: unknown operation %q: %w", op.Kind, apperr.ErrInvalid)
	}
	if !safeToken(op.Hostname) {
		return fmt.Errorf("privilege: bad hostname %q: %w", op.Hostname, apperr.ErrInvalid)
	}
	for _, a := range op.Addresses {
		if !safeToken(a) {
			return fmt.Errorf("privilege: bad address %q: %w", a, apperr.ErrInvalid)
		}
	}
	return nil
}

// safeToken accepts the characters that can appear in hostnames and IP literals.
func safeToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '_', r == ':':
		default:
			return false
		}
	}
	return true
}

// Broker is the per-OS privilege capability.
type Broker interface {
	// IsElevated reports whether this process holds administrator/root rights.
	// Any query failure yields false. The answer is not cached.
	IsElevated() bool
	// ElevateAndMutate applies op to the hosts file through an elevated child
	// process and blocks until it exits. A non-zero exit maps to apperr.ErrElevation.
	ElevateAndMutate(ctx context.Context, op Operation) error
}

// New probes the OS once and returns the matching Broker for the hosts file at hostsPath.
func New(hostsPath string, logger *slog.Logger) Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return newBroker(hostsPath, logger)
}

// runner starts name with args and waits for it to exit.
type runner func(ctx context.Context, name string, args ...string) error

// execRunner ignores cancellation of ctx: the launcher hands the script to a
// privileged child it cannot kill, so it must be waited for while the store
// lock is held and its exit status is the only report of the outcome.
func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(context.WithoutCancel(ctx), name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// runScript writes script to a single-use temp file, hands its path to
// launch and removes the file once the child has exited.
func runScript(ctx context.Context, logger *slog.Logger, pattern, script string, launch func(path string) error) error {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return fmt.Errorf("privilege: create script: %w", err)
	}
	path := f.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn("privilege: script cleanup failed", slog.String("path", path), slog.String("error", rmErr.Error()))
		}
	}()

	if _, err := f.WriteString(script); err != nil {
		_ = f.Close()
		return fmt.Errorf("privilege: write script: %w", err)
	}
	if err := f.Chmod(0o700); err != nil {
		_ = f.Close()
		return fmt.Errorf("privilege: chmod script: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("privilege: close script: %w", err)
	}

	if err := launch(path); err != nil {
		return fmt.Errorf("privilege: elevated script failed: %w: %w", apperr.ErrElevation, err)
	}
	return nil
}
