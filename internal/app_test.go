package internal

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/hostsub/internal/hostservice"
	"github.com/starford/hostsub/internal/netaddr"
	"github.com/starford/hostsub/internal/testutil"
)

func testApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Monitor.DataDir = dir
	cfg.SQLite.Path = filepath.Join(dir, "db", "hostsub.db")
	cfg.Monitor.DeviceName = "unit"

	store := testutil.TestHosts(t, testutil.SampleHosts)
	ifaces := func() ([]netaddr.Interface, error) {
		return []netaddr.Interface{
			{Name: "lo0", Flags: net.FlagUp | net.FlagLoopback, Addrs: []net.IP{net.ParseIP("127.0.0.1")}},
			{Name: "en0", Flags: net.FlagUp, Addrs: []net.IP{
				net.ParseIP("192.168.1.20"),
				net.ParseIP("fe80::1"),
			}},
		}, nil
	}

	app, err := New(
		WithConfig(cfg),
		WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))),
		WithHostsStore(store),
		WithBroker(&testutil.Broker{Elevated: true, Store: store}),
		WithInterfaces(ifaces),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestAppWiring(t *testing.T) {
	app := testApp(t)
	ctx := context.Background()

	if _, err := app.Service.Set(ctx, hostservice.SetRequest{Hostname: "box.local", Addresses: []string{"10.9.9.9"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	content, err := app.Service.Read(ctx)
	if err != nil || !strings.Contains(content, "10.9.9.9\tbox.local") {
		t.Fatalf("content = %q, %v", content, err)
	}

	addrs := app.Service.Addresses(ctx)
	if len(addrs) != 1 || addrs[0].Address != "192.168.1.20" {
		t.Fatalf("addresses = %v", addrs)
	}

	rep, err := app.Loop.Tick(ctx)
	if err != nil || !rep.Notified {
		t.Fatalf("Tick = %+v, %v", rep, err)
	}
	notes, total, err := app.Service.Notifications(ctx, 10, 0)
	if err != nil || total != 1 || notes[0].Device != "unit" {
		t.Errorf("notifications = %+v, %d, %v", notes, total, err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = freePort(t)
	cfg.Monitor.DataDir = dir
	cfg.SQLite.Path = filepath.Join(dir, "hostsub.db")
	store := testutil.TestHosts(t, testutil.SampleHosts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx,
			WithConfig(cfg),
			WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))),
			WithHostsStore(store),
			WithBroker(&testutil.Broker{Elevated: true, Store: store}),
			WithInterfaces(func() ([]netaddr.Interface, error) { return nil, nil }),
		)
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
