package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/starford/hostsub/internal/notify"
)

// ErrCycleInProgress is returned by Tick when another cycle is still running.
var ErrCycleInProgress = errors.New("monitor: cycle in progress")

// LoopConfig holds the periodic cycle settings.
type LoopConfig struct {
	Interval   time.Duration
	AutoNotify bool
	Device     string
}

// Report describes one finished cycle.
type Report struct {
	Changed  int  `json:"changed"`
	FirstRun bool `json:"first_run"`
	Notified bool `json:"notified"`
}

// Loop runs diff -> notify -> commit on a ticker. Overlapping cycles are
// skipped, not queued.
type Loop struct {
	detector *Detector
	notifier notify.Notifier
	cfg      LoopConfig
	logger   *slog.Logger
	now      func() time.Time

	running atomic.Bool
}

// NewLoop creates a Loop.
func NewLoop(detector *Detector, notifier notify.Notifier, cfg LoopConfig, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		detector: detector,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Run ticks until ctx is cancelled. Cycle errors are logged and never end
// the loop.
func (l *Loop) Run(ctx context.Context) error {
	if l.cfg.Interval <= 0 {
		return errors.New("monitor: interval must be positive")
	}
	l.logger.Info("address monitor started", slog.Duration("interval", l.cfg.Interval))

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("address monitor stopped")
			return nil
		case <-ticker.C:
			if _, err := l.Tick(ctx); err != nil && !errors.Is(err, ErrCycleInProgress) {
				l.logger.Warn("address cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Tick runs a single cycle. The baseline is committed only when the diff is
// non-empty and the notifier reports success.
func (l *Loop) Tick(ctx context.Context) (Report, error) {
	if !l.running.CompareAndSwap(false, true) {
		l.logger.Debug("address cycle skipped, previous still running")
		return Report{}, ErrCycleInProgress
	}
	defer l.running.Store(false)

	diff := l.detector.Diff(ctx)
	rep := Report{Changed: len(diff.Changed), FirstRun: diff.FirstRun}
	if len(diff.Changed) == 0 {
		return rep, nil
	}
	if !l.cfg.AutoNotify {
		l.logger.Info("address change detected, auto notify disabled",
			slog.Int("changed", len(diff.Changed)))
		return rep, nil
	}

	n := notify.Notification{Device: l.cfg.Device, Records: diff.Changed, At: l.now()}
	if err := l.notifier.Notify(ctx, n); err != nil {
		return rep, err
	}
	rep.Notified = true

	if err := l.detector.Commit(diff.Current); err != nil {
		return rep, err
	}
	l.logger.Info("address change notified",
		slog.Int("changed", rep.Changed),
		slog.Bool("first_run", rep.FirstRun))
	return rep, nil
}
