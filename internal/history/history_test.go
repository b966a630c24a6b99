package history

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/hostsub/internal/models"
	"github.com/starford/hostsub/internal/netaddr"
	"github.com/starford/hostsub/internal/notify"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"mutations", "notifications", "file_state"} {
		var n int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&n); err != nil {
			t.Errorf("%s table missing: %v", table, err)
		}
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.db")
	for i := 0; i < 2; i++ {
		db, err := Open(path)
		if err != nil {
			t.Fatalf("Open #%d: %v", i, err)
		}
		db.Close()
	}
}

func TestMutations(t *testing.T) {
	db := testDB(t)
	muts := []models.Mutation{
		{Kind: models.MutationSet, Hostname: "api.local", Addresses: []string{"10.0.0.5"}, Matched: false},
		{Kind: models.MutationSet, Hostname: "db.local", Addresses: []string{"10.0.0.6", "fd00::6"}, Elevated: true},
		{Kind: models.MutationRemove, Hostname: "api.local", Matched: true},
	}
	for _, m := range muts {
		if err := db.RecordMutation(m); err != nil {
			t.Fatalf("RecordMutation: %v", err)
		}
	}

	all, total, err := db.ListMutations(10, 0, "")
	if err != nil {
		t.Fatalf("ListMutations: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("total = %d, len = %d", total, len(all))
	}
	if all[0].Kind != models.MutationRemove || !all[0].Matched {
		t.Errorf("newest = %+v", all[0])
	}
	if !all[1].Elevated || len(all[1].Addresses) != 2 {
		t.Errorf("db.local row = %+v", all[1])
	}
	if all[0].At.IsZero() {
		t.Error("At not set")
	}

	api, total, err := db.ListMutations(1, 0, "api.local")
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(api) != 1 {
		t.Errorf("filtered total = %d, len = %d", total, len(api))
	}
}

func TestNotifyRecordsNotification(t *testing.T) {
	db := testDB(t)
	n := notify.Notification{
		Device: "box",
		Records: []netaddr.Record{
			{Interface: "en0", Family: netaddr.FamilyIPv6, Tag: netaddr.TagStable, Address: "2001:db8::1"},
		},
		At: time.Now(),
	}
	if err := db.Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	got, total, err := db.ListNotifications(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || got[0].Device != "box" || got[0].Count != 1 {
		t.Fatalf("notifications = %+v", got)
	}
	if !strings.Contains(got[0].Records, "2001:db8::1") {
		t.Errorf("records = %s", got[0].Records)
	}
}

func TestChecksum(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("/etc/hosts")
	if err != nil || cs != "" {
		t.Fatalf("unknown path = %q, %v", cs, err)
	}
	if err := db.SetChecksum("/etc/hosts", "abc"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetChecksum("/etc/hosts", "def"); err != nil {
		t.Fatal(err)
	}
	if cs, _ := db.GetChecksum("/etc/hosts"); cs != "def" {
		t.Errorf("checksum = %q, want def", cs)
	}
}
