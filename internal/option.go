package internal

import (
	"log/slog"

	"github.com/starford/hostsub/internal/hostsfile"
	"github.com/starford/hostsub/internal/netaddr"
	"github.com/starford/hostsub/internal/privilege"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	logger     *slog.Logger
	hosts      *hostsfile.Store
	broker     privilege.Broker
	interfaces netaddr.Source
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the JSON stdout logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithHostsStore manages store instead of the OS hosts file.
func WithHostsStore(store *hostsfile.Store) Option {
	return func(a *application) {
		a.hosts = store
	}
}

// WithBroker replaces the OS privilege broker.
func WithBroker(b privilege.Broker) Option {
	return func(a *application) {
		a.broker = b
	}
}

// WithInterfaces replaces the OS interface enumeration.
func WithInterfaces(src netaddr.Source) Option {
	return func(a *application) {
		a.interfaces = src
	}
}
