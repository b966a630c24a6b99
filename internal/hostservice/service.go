// Package hostservice coordinates hosts-file edits, their audit trail and
// the address views exposed to the API and MCP transports.
package hostservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/hostsub/internal/apperr"
	"github.com/starford/hostsub/internal/checksum"
	"github.com/starford/hostsub/internal/history"
	"github.com/starford/hostsub/internal/models"
	"github.com/starford/hostsub/internal/monitor"
	"github.com/starford/hostsub/internal/netaddr"
	"github.com/starford/hostsub/internal/parser"
	"github.com/starford/hostsub/internal/privilege"
	"github.com/starford/hostsub/internal/sse"
)

// Reader reads the hosts file.
type Reader interface {
	Path() string
	Read() (string, error)
}

// Applier performs a hosts mutation, elevating when required.
type Applier interface {
	IsElevated() bool
	Apply(ctx context.Context, op privilege.Operation) (privilege.Result, error)
}

// Publisher receives hosts change events.
type Publisher interface {
	PublishHostsEvent(kind, name string)
}

// Cycler runs one detect-and-notify cycle on demand.
type Cycler interface {
	Tick(ctx context.Context) (monitor.Report, error)
}

// Deps are the collaborators of a Service. History, Events and Cycler may
// be nil.
type Deps struct {
	Hosts      Reader
	Executor   Applier
	Classifier monitor.Classifier
	Detector   *monitor.Detector
	History    history.Log
	Events     Publisher
	Cycler     Cycler
	Logger     *slog.Logger
}

// Service is the entry point for every user-triggered action.
type Service struct {
	Deps
}

// New creates a Service.
func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{Deps: d}
}

// HostsPath returns the managed hosts file path.
func (s *Service) HostsPath() string { return s.Hosts.Path() }

// IsElevated reports whether edits apply without a prompt.
func (s *Service) IsElevated() bool { return s.Executor.IsElevated() }

// Read returns the hosts file without comment lines.
func (s *Service) Read(_ context.Context) (string, error) {
	return s.Hosts.Read()
}

// Entries returns the parsed active mappings.
func (s *Service) Entries(ctx context.Context) ([]models.HostEntry, error) {
	content, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(parser.ParseEntries(content)), nil
}

// Lookup returns the mappings whose hostname or alias is name.
func (s *Service) Lookup(ctx context.Context, name string) ([]models.HostEntry, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	found := parser.Lookup(entries, name)
	if len(found) == 0 {
		return nil, apperr.ErrNotFound
	}
	return found, nil
}

// Set validates req and replaces the mapping for its hostname.
func (s *Service) Set(ctx context.Context, req SetRequest) (privilege.Result, error) {
	if err := req.Validate(); err != nil {
		return privilege.Result{}, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}
	op := privilege.Operation{Kind: privilege.KindUpsert, Hostname: req.Hostname, Addresses: req.Addresses}
	res, err := s.Executor.Apply(ctx, op)
	if err != nil {
		return res, err
	}
	s.afterMutation(models.Mutation{
		Kind:      models.MutationSet,
		Hostname:  req.Hostname,
		Addresses: req.Addresses,
		Elevated:  res.Elevated,
		Matched:   res.Matched,
	}, sse.TypeHostSet)
	return res, nil
}

// SetLine parses "<ip> <host> [alias...]" and applies it with Set.
func (s *Service) SetLine(ctx context.Context, line string) (privilege.Result, error) {
	h, err := ParseHostLine(line)
	if err != nil {
		return privilege.Result{}, err
	}
	return s.Set(ctx, h.Request())
}

// Remove deletes every active line containing hostname. It returns
// apperr.ErrNotFound when nothing matched; the file is then left untouched.
func (s *Service) Remove(ctx context.Context, hostname string) (privilege.Result, error) {
	if hostname == "" {
		return privilege.Result{}, fmt.Errorf("%w: hostname is required", apperr.ErrInvalid)
	}
	res, err := s.Executor.Apply(ctx, privilege.Operation{Kind: privilege.KindRemove, Hostname: hostname})
	if err != nil {
		return res, err
	}
	if !res.Matched {
		return res, apperr.ErrNotFound
	}
	s.afterMutation(models.Mutation{
		Kind:     models.MutationRemove,
		Hostname: hostname,
		Elevated: res.Elevated,
		Matched:  true,
	}, sse.TypeHostRemoved)
	return res, nil
}

// Addresses returns the current classified addresses.
func (s *Service) Addresses(ctx context.Context) []netaddr.Record {
	return nonNilSlice(s.Classifier.Classify(ctx))
}

// Diff compares the current addresses with the baseline without
// committing anything.
func (s *Service) Diff(ctx context.Context) monitor.Diff {
	return s.Detector.Diff(ctx)
}

// Check runs a detect-and-notify cycle now.
func (s *Service) Check(ctx context.Context) (monitor.Report, error) {
	if s.Cycler == nil {
		return monitor.Report{}, errors.New("hostservice: monitor not running")
	}
	return s.Cycler.Tick(ctx)
}

// Mutations lists the audit log, newest first.
func (s *Service) Mutations(_ context.Context, limit, offset int, hostname string) ([]models.Mutation, int, error) {
	if s.History == nil {
		return []models.Mutation{}, 0, nil
	}
	rows, total, err := s.History.ListMutations(limit, offset, hostname)
	return nonNilSlice(rows), total, err
}

// Notifications lists delivered notifications, newest first.
func (s *Service) Notifications(_ context.Context, limit, offset int) ([]models.NotificationLog, int, error) {
	if s.History == nil {
		return []models.NotificationLog{}, 0, nil
	}
	rows, total, err := s.History.ListNotifications(limit, offset)
	return nonNilSlice(rows), total, err
}

// afterMutation records the change, refreshes the stored checksum so the
// file watcher ignores this write, and publishes the event. Failures here
// are logged; the edit itself already succeeded.
func (s *Service) afterMutation(m models.Mutation, event string) {
	s.Logger.Info("hosts file updated",
		slog.String("kind", m.Kind),
		slog.String("hostname", m.Hostname),
		slog.Bool("elevated", m.Elevated))

	if s.History != nil {
		if err := s.History.RecordMutation(m); err != nil {
			s.Logger.Warn("history: record failed", slog.String("error", err.Error()))
		}
		path := s.Hosts.Path()
		if data, err := os.ReadFile(path); err == nil {
			if err := s.History.SetChecksum(path, checksum.Sum(data)); err != nil {
				s.Logger.Warn("history: checksum update failed", slog.String("error", err.Error()))
			}
		}
	}
	if s.Events != nil {
		s.Events.PublishHostsEvent(event, m.Hostname)
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
