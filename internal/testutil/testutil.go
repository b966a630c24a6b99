// Package testutil provides shared test helpers for hosts files and databases.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/hostsub/internal/history"
	"github.com/starford/hostsub/internal/hostsfile"
	"github.com/starford/hostsub/internal/privilege"
)

// SampleHosts is a small hosts file with comments and a blank line.
const SampleHosts = "# static table\n127.0.0.1\tlocalhost\n\n::1\tlocalhost\n10.0.0.5\tapi.local api\n"

// TestDB creates a temporary history database that is closed on cleanup.
func TestDB(t *testing.T) *history.DB {
	t.Helper()
	db, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestHosts writes content to a temporary hosts file and returns its store.
func TestHosts(t *testing.T, content string) *hostsfile.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := hostsfile.New(path)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// Broker is a privilege.Broker stand-in. When Elevated is false,
// ElevateAndMutate applies the operation to Store directly, as an
// elevated helper would, and counts the prompt.
type Broker struct {
	Elevated bool
	Store    *hostsfile.Store
	Err      error
	Prompts  int
}

// IsElevated returns b.Elevated.
func (b *Broker) IsElevated() bool { return b.Elevated }

// ElevateAndMutate applies op to the store unless Err is set.
func (b *Broker) ElevateAndMutate(_ context.Context, op privilege.Operation) error {
	b.Prompts++
	if b.Err != nil {
		return b.Err
	}
	data, err := os.ReadFile(b.Store.Path())
	if err != nil {
		return err
	}
	// The caller holds the store lock; mutate a private store on a copy.
	tmp, err := os.CreateTemp(filepath.Dir(b.Store.Path()), "elevated-*")
	if err != nil {
		return err
	}
	tmp.Close()
	defer os.Remove(tmp.Name())
	defer os.Remove(tmp.Name() + hostsfile.BackupSuffix)
	if err := os.WriteFile(tmp.Name(), data, 0o644); err != nil {
		return err
	}
	side, err := hostsfile.New(tmp.Name())
	if err != nil {
		return err
	}
	switch op.Kind {
	case privilege.KindUpsert:
		_, err = side.Upsert(op.Hostname, op.Addresses)
	default:
		_, err = side.Remove(op.Hostname)
	}
	if err != nil {
		return err
	}
	out, err := os.ReadFile(tmp.Name())
	if err != nil {
		return err
	}
	if err := os.WriteFile(b.Store.BackupPath(), data, 0o644); err != nil {
		return err
	}
	return os.WriteFile(b.Store.Path(), out, 0o644)
}
