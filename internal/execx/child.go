package execx

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Child is an owned background process. The handle is acquired at spawn and
// released at confirmed termination; callers that found a process already
// running never hold a Child for it.
type Child struct {
	cmd  *exec.Cmd
	log  *os.File
	done chan struct{}

	mu      sync.Mutex
	waitErr error
}

// StartChild spawns name with args in the background, redirecting its
// combined output to logPath (truncated). The returned handle owns the
// process lifetime.
func StartChild(logPath, name string, args ...string) (*Child, error) {
	cmd := exec.Command(name, args...)
	cmd.Env = os.Environ()

	var logFile *os.File
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open child log %s: %w", logPath, err)
		}
		cmd.Stdout = f
		cmd.Stderr = f
		logFile = f
	}

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return nil, err
	}

	c := &Child{cmd: cmd, log: logFile, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		c.mu.Lock()
		c.waitErr = err
		c.mu.Unlock()
		if c.log != nil {
			_ = c.log.Close()
		}
		close(c.done)
	}()
	return c, nil
}

// PID returns the process id of the child.
func (c *Child) PID() int { return c.cmd.Process.Pid }

// Alive reports whether the child has not yet exited.
func (c *Child) Alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// ExitErr returns the error from Wait once the child has exited, nil before.
func (c *Child) ExitErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waitErr
}

// Stop terminates the child: SIGTERM first, then SIGKILL if it has not
// exited within grace. No-op when the process already exited.
func (c *Child) Stop(grace time.Duration) error {
	if !c.Alive() {
		return nil
	}
	if err := c.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// fall through to Kill; the process may already be gone
		_ = err
	}
	select {
	case <-c.done:
		return nil
	case <-time.After(grace):
	}
	if err := c.cmd.Process.Kill(); err != nil {
		return err
	}
	<-c.done
	return nil
}

// Manager tracks started children and can stop them all on cleanup.
type Manager struct {
	mu       sync.Mutex
	children []*Child
}

func NewManager() *Manager { return &Manager{} }

// Track registers a child for later cleanup.
func (m *Manager) Track(c *Child) {
	m.mu.Lock()
	m.children = append(m.children, c)
	m.mu.Unlock()
}

// StopAll stops all tracked children best-effort.
func (m *Manager) StopAll(grace time.Duration) {
	m.mu.Lock()
	children := append([]*Child(nil), m.children...)
	m.children = nil
	m.mu.Unlock()
	for _, c := range children {
		if c != nil {
			_ = c.Stop(grace)
		}
	}
}
