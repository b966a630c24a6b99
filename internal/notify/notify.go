// Package notify delivers address-change notifications. SMTP delivery is
// outside this module; the notifiers here log, publish to SSE subscribers and
// record history, and can be combined with Multi.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/hostsub/internal/netaddr"
)

// Notification is one batch of new or changed addresses.
type Notification struct {
	Device  string           `json:"device"`
	Records []netaddr.Record `json:"records"`
	At      time.Time        `json:"at"`
}

// Notifier delivers a notification. A nil error means delivery succeeded and
// the caller may advance its baseline.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notification) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// Multi calls every notifier in order and joins their errors. Delivery counts
// as successful only when all of them succeed.
type Multi []Notifier

// Notify fans n out to every notifier.
func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes each notification to a structured logger.
type Log struct {
	Logger *slog.Logger
}

// Notify logs one line per record.
func (l Log) Notify(_ context.Context, n Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, r := range n.Records {
		logger.Info("address changed",
			slog.String("device", n.Device),
			slog.String("interface", r.Interface),
			slog.String("family", r.Family),
			slog.String("tag", r.Tag),
			slog.String("address", r.Address))
	}
	return nil
}
