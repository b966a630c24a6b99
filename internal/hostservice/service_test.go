package hostservice

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/starford/hostsub/internal/apperr"
	"github.com/starford/hostsub/internal/checksum"
	"github.com/starford/hostsub/internal/models"
	"github.com/starford/hostsub/internal/monitor"
	"github.com/starford/hostsub/internal/netaddr"
	"github.com/starford/hostsub/internal/privilege"
	"github.com/starford/hostsub/internal/sse"
	"github.com/starford/hostsub/internal/testutil"
)

type fixedClassifier []netaddr.Record

func (f fixedClassifier) Classify(context.Context) []netaddr.Record { return f }

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishHostsEvent(kind, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, kind+":"+name)
}

type env struct {
	svc    *Service
	broker *testutil.Broker
	pub    *recordingPublisher
}

func newEnv(t *testing.T, elevated bool) env {
	t.Helper()
	store := testutil.TestHosts(t, testutil.SampleHosts)
	broker := &testutil.Broker{Elevated: elevated, Store: store}
	classifier := fixedClassifier{
		{Interface: "en0", Family: netaddr.FamilyIPv4, Address: "192.168.1.10"},
	}
	pub := &recordingPublisher{}
	svc := New(Deps{
		Hosts:      store,
		Executor:   privilege.NewExecutor(store, broker, nil),
		Classifier: classifier,
		Detector:   monitor.NewDetector(classifier, monitor.NewSnapshotFile(t.TempDir()), nil),
		History:    testutil.TestDB(t),
		Events:     pub,
	})
	return env{svc: svc, broker: broker, pub: pub}
}

func TestEntries(t *testing.T) {
	e := newEnv(t, true)
	entries, err := e.svc.Entries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %+v", entries)
	}

	found, err := e.svc.Lookup(context.Background(), "api")
	if err != nil || len(found) != 1 || found[0].Hostname != "api.local" {
		t.Errorf("Lookup(api) = %+v, %v", found, err)
	}
	if _, err := e.svc.Lookup(context.Background(), "nope.local"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Lookup missing err = %v", err)
	}
}

func TestSetDirect(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	res, err := e.svc.Set(ctx, SetRequest{Hostname: "db.local", Addresses: []string{"10.0.0.6", "fd00::6"}})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if res.Elevated || res.Matched {
		t.Errorf("result = %+v", res)
	}
	if e.broker.Prompts != 0 {
		t.Errorf("prompts = %d, want 0", e.broker.Prompts)
	}

	content, _ := e.svc.Read(ctx)
	if !strings.Contains(content, "10.0.0.6\tdb.local") || !strings.Contains(content, "fd00::6\tdb.local") {
		t.Errorf("content = %q", content)
	}

	muts, total, err := e.svc.Mutations(ctx, 10, 0, "db.local")
	if err != nil || total != 1 || muts[0].Kind != models.MutationSet {
		t.Errorf("mutations = %+v, %d, %v", muts, total, err)
	}
	if len(e.pub.events) != 1 || e.pub.events[0] != sse.TypeHostSet+":db.local" {
		t.Errorf("events = %v", e.pub.events)
	}

	data, _ := os.ReadFile(e.svc.HostsPath())
	cs, _ := e.svc.History.GetChecksum(e.svc.HostsPath())
	if cs != checksum.Sum(data) {
		t.Error("checksum not refreshed after write")
	}
}

func TestSetElevated(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	res, err := e.svc.SetLine(ctx, "10.0.0.9 api.local api")
	if err != nil {
		t.Fatalf("SetLine: %v", err)
	}
	if !res.Elevated || !res.Matched {
		t.Errorf("result = %+v", res)
	}
	if e.broker.Prompts != 1 {
		t.Errorf("prompts = %d, want 1", e.broker.Prompts)
	}
	found, err := e.svc.Lookup(ctx, "api.local")
	if err != nil || len(found) != 1 || found[0].Address != "10.0.0.9" {
		t.Errorf("after set = %+v, %v", found, err)
	}
}

func TestSetElevationFailure(t *testing.T) {
	e := newEnv(t, false)
	e.broker.Err = apperr.ErrElevation

	_, err := e.svc.Set(context.Background(), SetRequest{Hostname: "x.local", Addresses: []string{"10.0.0.1"}})
	if !errors.Is(err, apperr.ErrElevation) {
		t.Fatalf("err = %v, want ErrElevation", err)
	}
	if _, total, _ := e.svc.Mutations(context.Background(), 10, 0, ""); total != 0 {
		t.Errorf("failed edit recorded in history")
	}
	if len(e.pub.events) != 0 {
		t.Errorf("events = %v", e.pub.events)
	}
}

func TestSetValidation(t *testing.T) {
	e := newEnv(t, true)
	bad := []SetRequest{
		{Hostname: "", Addresses: []string{"10.0.0.1"}},
		{Hostname: "ok.local", Addresses: nil},
		{Hostname: "ok.local", Addresses: []string{"256.1.1.1"}},
		{Hostname: "-bad-.local", Addresses: []string{"10.0.0.1"}},
	}
	for _, req := range bad {
		if _, err := e.svc.Set(context.Background(), req); !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("Set(%+v) err = %v, want ErrInvalid", req, err)
		}
	}
}

func TestRemove(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	if _, err := e.svc.Remove(ctx, "missing.local"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Remove missing err = %v", err)
	}
	if e.broker.Prompts != 0 {
		t.Errorf("no-match remove prompted")
	}

	res, err := e.svc.Remove(ctx, "api.local")
	if err != nil || !res.Matched {
		t.Fatalf("Remove = %+v, %v", res, err)
	}
	content, _ := e.svc.Read(ctx)
	if strings.Contains(content, "api.local") {
		t.Errorf("content still has api.local: %q", content)
	}
	if e.pub.events[0] != sse.TypeHostRemoved+":api.local" {
		t.Errorf("events = %v", e.pub.events)
	}
}

func TestParseHostLine(t *testing.T) {
	tests := []struct {
		line    string
		wantErr bool
		aliases int
	}{
		{"10.0.0.1 a.local", false, 0},
		{"fd00::1   a.local  b c", false, 2},
		{"10.0.0.1", true, 0},
		{"999.0.0.1 a.local", true, 0},
		{"10.0.0.1 a.local bad_alias!", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			h, err := ParseHostLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if err != nil {
				if !errors.Is(err, apperr.ErrInvalid) {
					t.Errorf("err = %v, want ErrInvalid", err)
				}
				return
			}
			if len(h.Aliases) != tt.aliases {
				t.Errorf("aliases = %v", h.Aliases)
			}
			if req := h.Request(); len(req.Addresses) != 1 || req.Hostname != h.Hostname {
				t.Errorf("Request = %+v", req)
			}
		})
	}
}

func TestAddressesAndDiff(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	if got := e.svc.Addresses(ctx); len(got) != 1 {
		t.Errorf("Addresses = %v", got)
	}
	d := e.svc.Diff(ctx)
	if !d.FirstRun || len(d.Changed) != 1 {
		t.Errorf("Diff = %+v", d)
	}
	if _, err := e.svc.Check(ctx); err == nil {
		t.Error("Check without monitor should fail")
	}
}
