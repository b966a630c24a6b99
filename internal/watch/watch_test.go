package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/hostsub/internal/checksum"
)

type memSums struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemSums() *memSums { return &memSums{m: map[string]string{}} }

func (s *memSums) GetChecksum(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[path], nil
}

func (s *memSums) SetChecksum(path, sum string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[path] = sum
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func writeHosts(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts")
	writeHosts(t, path, "127.0.0.1 localhost\n")
	sums := newMemSums()

	changed, err := Sync(path, sums)
	if err != nil || changed {
		t.Fatalf("first Sync = %v, %v; want false, nil", changed, err)
	}
	if changed, _ := Sync(path, sums); changed {
		t.Error("unchanged file reported as changed")
	}
	writeHosts(t, path, "127.0.0.1 localhost\n10.0.0.1 x\n")
	if changed, _ := Sync(path, sums); !changed {
		t.Error("edit not reported")
	}
}

func TestWatchReportsExternalEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts")
	writeHosts(t, path, "127.0.0.1 localhost\n")
	sums := newMemSums()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var hits atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, sums, 20*time.Millisecond, quietLogger(), func(string) { hits.Add(1) })
	}()
	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		cs, _ := sums.GetChecksum(path)
		return cs != ""
	}, "watcher never recorded initial checksum")

	// Own write: checksum updated before the file changes.
	own := "127.0.0.1 localhost\n10.0.0.2 own.local\n"
	_ = sums.SetChecksum(path, checksum.Sum([]byte(own)))
	writeHosts(t, path, own)
	time.Sleep(150 * time.Millisecond)
	if n := hits.Load(); n != 0 {
		t.Fatalf("own write reported %d times", n)
	}

	writeHosts(t, path, own+"10.0.0.3 other.local\n")
	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool { return hits.Load() == 1 },
		"external edit not reported")

	// Sibling files are ignored.
	writeHosts(t, filepath.Join(dir, "hosts.bak"), "noise\n")
	time.Sleep(150 * time.Millisecond)
	if n := hits.Load(); n != 1 {
		t.Errorf("hits = %d after sibling write, want 1", n)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop")
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "hosts"), newMemSums(), 0, quietLogger(), nil)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
