package mpmk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"

	"git.fractalqb.de/fractalqb/mpmk/mpmkore"
)

// LogNotifier logs notifications at error level.
type LogNotifier struct{ Log *slog.Logger }

func (ln LogNotifier) Notify(ctx context.Context, n mpmkore.Notification) error {
	ln.Log.ErrorContext(ctx, "`title`: `subtitle` `message`",
		slog.String("title", n.Title),
		slog.String("subtitle", n.Subtitle),
		slog.String("message", n.Message),
	)
	return nil
}

// DesktopNotifier shows notifications on the desktop with notify-send or,
// on macOS, osascript.
type DesktopNotifier struct {
	Exe string
}

func (dn DesktopNotifier) Notify(ctx context.Context, n mpmkore.Notification) error {
	exe, args := dn.command(n)
	if exe == "" {
		return errors.New("no desktop notifier available")
	}
	if out, err := exec.CommandContext(ctx, exe, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", exe, err, out)
	}
	return nil
}

func (dn DesktopNotifier) command(n mpmkore.Notification) (string, []string) {
	exe := dn.Exe
	if runtime.GOOS == "darwin" && (exe == "" || exe == "osascript") {
		script := fmt.Sprintf("display notification %s with title %s subtitle %s sound name \"Beep\"",
			strconv.Quote(n.Message),
			strconv.Quote(n.Title),
			strconv.Quote(n.Subtitle),
		)
		return "osascript", []string{"-e", script}
	}
	if exe == "" {
		var err error
		if exe, err = exec.LookPath("notify-send"); err != nil {
			return "", nil
		}
	}
	return exe, []string{"--urgency=critical", n.Title + ": " + n.Subtitle, n.Message}
}

// Notifiers sends each notification to all its notifiers.
type Notifiers []mpmkore.Notifier

func (ns Notifiers) Notify(ctx context.Context, n mpmkore.Notification) error {
	var errs []error
	for _, nt := range ns {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
