//go:build windows

package privilege

import (
	"context"
	"log/slog"

	"golang.org/x/sys/windows"
)

type windowsBroker struct {
	hostsPath string
	logger    *slog.Logger
	run       runner
}

func newBroker(hostsPath string, logger *slog.Logger) Broker {
	return &windowsBroker{hostsPath: hostsPath, logger: logger, run: execRunner}
}

// IsElevated queries TokenElevation on the process token.
func (b *windowsBroker) IsElevated() bool {
	var token windows.Token
	if err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_QUERY, &token); err != nil {
		b.logger.Warn("privilege: open process token failed", slog.String("error", err.Error()))
		return false
	}
	defer token.Close()
	return token.IsElevated()
}

func (b *windowsBroker) ElevateAndMutate(ctx context.Context, op Operation) error {
	if err := op.Validate(); err != nil {
		return err
	}
	script := powershellScript(b.hostsPath, op)
	return runScript(ctx, b.logger, "hostsub-*.ps1", script, func(path string) error {
		b.logger.Info("privilege: requesting elevation",
			slog.String("op", string(op.Kind)),
			slog.String("hostname", op.Hostname))
		// The outer shell is unprivileged; Start-Process -Verb RunAs raises the
		// UAC prompt and its exit code is forwarded.
		launcher := "try { $p = Start-Process -FilePath 'powershell.exe' -ArgumentList " +
			"'-NoProfile','-ExecutionPolicy','Bypass','-File'," + psQuote(`"`+path+`"`) +
			" -Verb RunAs -Wait -PassThru -WindowStyle Hidden; exit $p.ExitCode } catch { exit 1 }"
		return b.run(ctx, "powershell.exe", "-NoProfile", "-ExecutionPolicy", "Bypass", "-Command", launcher)
	})
}
