package privilege

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/hostsub/internal/apperr"
	"github.com/starford/hostsub/internal/hostsfile"
)

// Mutator is the hosts file contract the executor drives. *hostsfile.Store implements it.
type Mutator interface {
	Path() string
	Upsert(name string, addresses []string) (bool, error)
	Remove(name string) (bool, error)
	WithLock(fn func() error) error
}

// Result describes how an operation was applied.
type Result struct {
	// Elevated is true when the edit went through the elevation prompt.
	Elevated bool
	// Matched reports whether any existing line contained the hostname.
	Matched bool
}

// Executor routes a mutation either straight to the store or through the
// broker. Both paths hold the store's lock, so an elevated edit never
// overlaps an in-process one.
type Executor struct {
	store  Mutator
	broker Broker
	logger *slog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(store Mutator, broker Broker, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{store: store, broker: broker, logger: logger}
}

// IsElevated forwards to the broker.
func (e *Executor) IsElevated() bool { return e.broker.IsElevated() }

// Apply performs op synchronously.
func (e *Executor) Apply(ctx context.Context, op Operation) (Result, error) {
	if err := op.Validate(); err != nil {
		return Result{}, err
	}

	if e.broker.IsElevated() {
		switch op.Kind {
		case KindUpsert:
			matched, err := e.store.Upsert(op.Hostname, op.Addresses)
			return Result{Matched: matched}, err
		default:
			matched, err := e.store.Remove(op.Hostname)
			return Result{Matched: matched}, err
		}
	}

	res := Result{Elevated: true}
	err := e.store.WithLock(func() error {
		matched, err := e.hasMatch(op.Hostname)
		if err != nil {
			return err
		}
		res.Matched = matched
		if op.Kind == KindRemove && !matched {
			// Nothing to delete; skip the prompt.
			res.Elevated = false
			return nil
		}
		return e.broker.ElevateAndMutate(ctx, op)
	})
	if err != nil {
		e.logger.Warn("privilege: elevated mutation failed",
			slog.String("op", string(op.Kind)),
			slog.String("hostname", op.Hostname),
			slog.String("error", err.Error()))
		return Result{}, err
	}
	return res, nil
}

// hasMatch scans the (world-readable) hosts file for an active line containing name.
func (e *Executor) hasMatch(name string) (bool, error) {
	f, err := os.Open(e.store.Path())
	if err != nil {
		return false, fmt.Errorf("privilege: open %s: %w: %w", e.store.Path(), apperr.ErrIO, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if hostsfile.MatchesHost(sc.Text(), name) {
			return true, nil
		}
	}
	if err := sc.Err(); err != nil {
		return false, fmt.Errorf("privilege: read %s: %w: %w", e.store.Path(), apperr.ErrIO, err)
	}
	return false, nil
}
