package monitor

import (
	"context"
	"log/slog"

	"github.com/starford/hostsub/internal/netaddr"
)

// Classifier produces the current address set.
type Classifier interface {
	Classify(ctx context.Context) []netaddr.Record
}

// Diff is the outcome of comparing the current addresses with the baseline.
type Diff struct {
	// Changed holds records that are new or differ from the baseline entry
	// with the same address.
	Changed []netaddr.Record `json:"changed"`
	// Current is the full classification the diff was computed from; commit
	// it once the notification has been delivered.
	Current []netaddr.Record `json:"current"`
	// FirstRun is set when the baseline was empty, absent or unreadable.
	FirstRun bool `json:"first_run"`
}

// Detector compares classifications against the persisted snapshot. It never
// advances the baseline on its own; callers do that with Commit.
type Detector struct {
	classifier Classifier
	snapshot   *SnapshotFile
	logger     *slog.Logger
}

// NewDetector creates a Detector.
func NewDetector(classifier Classifier, snapshot *SnapshotFile, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{classifier: classifier, snapshot: snapshot, logger: logger}
}

// Diff reports new and changed records. Addresses that disappeared from the
// machine produce no entry.
func (d *Detector) Diff(ctx context.Context) Diff {
	baseline, err := d.snapshot.Load()
	if err != nil {
		d.logger.Warn("monitor: snapshot unreadable, treating as first run",
			slog.String("path", d.snapshot.Path()),
			slog.String("error", err.Error()))
		baseline = nil
	}
	current := d.classifier.Classify(ctx)
	return Diff{
		Changed:  Compare(baseline, current),
		Current:  current,
		FirstRun: len(baseline) == 0,
	}
}

// Commit stores records as the new baseline.
func (d *Detector) Commit(records []netaddr.Record) error {
	return d.snapshot.Save(records)
}

// Compare returns the records in current that are absent from baseline or
// whose interface, family or tag differ from the baseline record with the
// same address. An empty baseline reports everything.
func Compare(baseline, current []netaddr.Record) []netaddr.Record {
	out := []netaddr.Record{}
	if len(baseline) == 0 {
		return append(out, current...)
	}
	byAddr := make(map[string]netaddr.Record, len(baseline))
	for _, r := range baseline {
		if _, dup := byAddr[r.Address]; !dup {
			byAddr[r.Address] = r
		}
	}
	for _, r := range current {
		old, ok := byAddr[r.Address]
		if !ok || old.Interface != r.Interface || old.Family != r.Family || old.Tag != r.Tag {
			out = append(out, r)
		}
	}
	return out
}
