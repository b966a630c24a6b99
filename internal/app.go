package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/hostsub/internal/history"
	"github.com/starford/hostsub/internal/hostservice"
	"github.com/starford/hostsub/internal/hostsfile"
	"github.com/starford/hostsub/internal/monitor"
	"github.com/starford/hostsub/internal/netaddr"
	"github.com/starford/hostsub/internal/notify"
	"github.com/starford/hostsub/internal/privilege"
	"github.com/starford/hostsub/internal/sse"
)

// App holds the wired components shared by the server and the CLI commands.
type App struct {
	Config  *Config
	Logger  *slog.Logger
	Hosts   *hostsfile.Store
	History *history.DB
	Events  *sse.Broker
	Loop    *monitor.Loop
	Service *hostservice.Service
}

// New wires every component from opts. Close releases them.
func New(opts ...Option) (*App, error) {
	a := &application{}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return nil, errors.New("config is required")
	}
	cfg := a.config

	logger := a.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}

	hosts := a.hosts
	if hosts == nil {
		var err error
		if hosts, err = hostsfile.NewDefault(); err != nil {
			return nil, fmt.Errorf("init hosts store: %w", err)
		}
	}
	broker := a.broker
	if broker == nil {
		broker = privilege.New(hosts.Path(), logger)
	}
	src := a.interfaces
	if src == nil {
		src = netaddr.SystemInterfaces
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := history.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}

	events := sse.NewBroker(cfg.Hosts.EventThrottle)
	classifier := netaddr.NewClassifier(src, logger)
	detector := monitor.NewDetector(classifier, monitor.NewSnapshotFile(cfg.Monitor.DataDir), logger)
	loop := monitor.NewLoop(detector,
		notify.Multi{notify.Log{Logger: logger}, events, db},
		monitor.LoopConfig{
			Interval:   cfg.Monitor.Interval,
			AutoNotify: cfg.Monitor.AutoNotify,
			Device:     cfg.Monitor.DeviceName,
		}, logger)

	svc := hostservice.New(hostservice.Deps{
		Hosts:      hosts,
		Executor:   privilege.NewExecutor(hosts, broker, logger),
		Classifier: classifier,
		Detector:   detector,
		History:    db,
		Events:     events,
		Cycler:     loop,
		Logger:     logger,
	})

	return &App{
		Config:  cfg,
		Logger:  logger,
		Hosts:   hosts,
		History: db,
		Events:  events,
		Loop:    loop,
		Service: svc,
	}, nil
}

// Close waits for an in-flight hosts mutation, then releases resources.
func (a *App) Close() error {
	a.Hosts.Drain()
	a.Events.Close()
	return a.History.Close()
}
