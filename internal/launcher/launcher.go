// Package launcher supervises the model daemon: probe, spawn when absent,
// poll readiness within a bounded budget, and stop on exit only what it
// started itself.
package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"lamactl/internal/common/fsutil"
	"lamactl/internal/execx"
)

// Status is the terminal state of one EnsureDaemon run.
type Status int

const (
	// AlreadyRunning: the daemon answered the first probe; the launcher
	// has no cleanup obligation for it.
	AlreadyRunning Status = iota
	// Ready: the launcher spawned the daemon and it became reachable;
	// the launcher owns stopping it.
	Ready
	// TimedOut: the spawned daemon never became reachable within the
	// polling budget.
	TimedOut
	// ProcessDied: the spawned daemon exited before becoming reachable.
	ProcessDied
)

func (s Status) String() string {
	switch s {
	case AlreadyRunning:
		return "already-running"
	case Ready:
		return "ready"
	case TimedOut:
		return "timed-out"
	default:
		return "process-died"
	}
}

// Prober answers the daemon health probe.
type Prober interface {
	Healthy(ctx context.Context) bool
}

const (
	defaultPollAttempts = 30
	defaultPollInterval = time.Second
	stopGrace           = 5 * time.Second
)

// Launcher runs the daemon lifecycle. One Launcher supervises at most one
// spawned daemon.
type Launcher struct {
	probe   Prober
	bin     string
	args    []string
	logPath string
	log     zerolog.Logger

	attempts int
	interval time.Duration

	// spawn hook, replaceable in tests
	start func(logPath, name string, args ...string) (*execx.Child, error)

	procs *execx.Manager
	child *execx.Child // non-nil only for a daemon this launcher started
}

// New builds a Launcher that probes with probe and spawns bin args when the
// daemon is unreachable. Daemon output goes to logPath.
func New(probe Prober, bin string, args []string, logPath string, log zerolog.Logger) *Launcher {
	return &Launcher{
		probe:    probe,
		bin:      bin,
		args:     args,
		logPath:  logPath,
		log:      log,
		attempts: defaultPollAttempts,
		interval: defaultPollInterval,
		start:    execx.StartChild,
		procs:    execx.NewManager(),
	}
}

// DefaultLogPath places the daemon log under the state directory:
// $XDG_STATE_HOME/lamactl/ollama.log, else ~/.lamactl/ollama.log.
func DefaultLogPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "lamactl", "ollama.log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "ollama.log")
	}
	return filepath.Join(home, ".lamactl", "ollama.log")
}

// EnsureDaemon drives the lifecycle to a terminal state:
// Unknown → Probing → {AlreadyRunning | Starting} → {Ready | TimedOut | ProcessDied}.
func (l *Launcher) EnsureDaemon(ctx context.Context) (Status, error) {
	if l.probe.Healthy(ctx) {
		l.log.Info().Msg("daemon already running")
		return AlreadyRunning, nil
	}

	if err := fsutil.EnsureDir(filepath.Dir(l.logPath)); err != nil {
		return TimedOut, fmt.Errorf("create log dir: %w", err)
	}
	l.log.Info().Str("bin", l.bin).Str("log", l.logPath).Msg("starting daemon")
	child, err := l.start(l.logPath, l.bin, l.args...)
	if err != nil {
		return TimedOut, errDaemonDied(fmt.Errorf("spawn %s: %w", l.bin, err))
	}
	l.child = child
	l.procs.Track(child)
	l.log.Debug().Int("pid", child.PID()).Msg("daemon spawned")

	for i := 0; i < l.attempts; i++ {
		// A dead child will never become ready; bail out instead of
		// waiting out the rest of the budget.
		if !child.Alive() {
			l.stopOwned()
			return ProcessDied, errDaemonDied(fmt.Errorf("daemon exited during startup (pid %d, log %s): %v",
				child.PID(), l.logPath, child.ExitErr()))
		}
		if l.probe.Healthy(ctx) {
			l.log.Info().Int("pid", child.PID()).Msg("daemon ready")
			return Ready, nil
		}
		select {
		case <-ctx.Done():
			l.stopOwned()
			return TimedOut, ctx.Err()
		case <-time.After(l.interval):
		}
	}

	l.stopOwned()
	return TimedOut, errDaemonUnreachable(fmt.Errorf(
		"daemon did not become ready after %d attempts (log %s)", l.attempts, l.logPath))
}

// Owned reports whether this launcher is responsible for stopping a daemon.
func (l *Launcher) Owned() bool { return l.child != nil }

// PID returns the spawned daemon's pid, 0 when none is owned.
func (l *Launcher) PID() int {
	if l.child == nil {
		return 0
	}
	return l.child.PID()
}

// Shutdown stops the daemon only if this launcher started it. A daemon
// found already running at startup is never touched.
func (l *Launcher) Shutdown() {
	if l.child == nil {
		return
	}
	l.log.Info().Int("pid", l.child.PID()).Msg("stopping daemon")
	l.stopOwned()
}

// stopOwned stops every process this launcher spawned and releases
// ownership. Processes found already running were never tracked.
func (l *Launcher) stopOwned() {
	l.procs.StopAll(stopGrace)
	l.child = nil
}

// daemonDiedError: the spawned process exited before readiness.
type daemonDiedError struct{ err error }

func (e daemonDiedError) Error() string { return e.err.Error() }
func (e daemonDiedError) Unwrap() error { return e.err }

func errDaemonDied(err error) error { return daemonDiedError{err: err} }

// IsDaemonDied reports whether err means the spawned daemon exited early.
func IsDaemonDied(err error) bool {
	_, ok := err.(daemonDiedError)
	return ok
}

// daemonUnreachableError: the readiness budget ran out.
type daemonUnreachableError struct{ err error }

func (e daemonUnreachableError) Error() string { return e.err.Error() }
func (e daemonUnreachableError) Unwrap() error { return e.err }

func errDaemonUnreachable(err error) error { return daemonUnreachableError{err: err} }

// IsDaemonUnreachable reports whether err means readiness polling timed out.
func IsDaemonUnreachable(err error) bool {
	_, ok := err.(daemonUnreachableError)
	return ok
}
