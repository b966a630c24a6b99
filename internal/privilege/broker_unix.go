//go:build !windows

package privilege

import (
	"context"
	"log/slog"
	"os"
)

type unixBroker struct {
	hostsPath string
	logger    *slog.Logger
	run       runner
	// prompt turns a script path into the command that runs it behind the
	// platform's administrator prompt.
	prompt  func(script string) (string, []string)
	geteuid func() int
}

func newBroker(hostsPath string, logger *slog.Logger) Broker {
	return &unixBroker{
		hostsPath: hostsPath,
		logger:    logger,
		run:       execRunner,
		prompt:    promptCommand,
		geteuid:   os.Geteuid,
	}
}

// IsElevated reports whether the effective uid is 0.
func (b *unixBroker) IsElevated() bool {
	return b.geteuid() == 0
}

func (b *unixBroker) ElevateAndMutate(ctx context.Context, op Operation) error {
	if err := op.Validate(); err != nil {
		return err
	}
	script := posixScript(b.hostsPath, op)
	return runScript(ctx, b.logger, "hostsub-*.sh", script, func(path string) error {
		name, args := b.prompt(path)
		b.logger.Info("privilege: requesting elevation",
			slog.String("op", string(op.Kind)),
			slog.String("hostname", op.Hostname),
			slog.String("launcher", name))
		return b.run(ctx, name, args...)
	})
}
