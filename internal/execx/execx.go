// Package execx wraps subprocess execution for the orchestration flows:
// a unified command runner plus an owned handle for long-running children.
package execx

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Cmd describes a single subprocess invocation.
type Cmd struct {
	Path   string
	Args   []string
	Stream bool // if true, stream stdout/err line by line
}

// Run executes c and waits for it to finish.
func Run(ctx context.Context, c Cmd) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Env = os.Environ()
	if c.Stream {
		stdout, _ := cmd.StdoutPipe()
		stderr, _ := cmd.StderrPipe()
		if err := cmd.Start(); err != nil {
			return err
		}
		go stream(stdout)
		go stream(stderr)
		return cmd.Wait()
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// RunVerbose runs name with args, inheriting stdout/stderr.
func RunVerbose(ctx context.Context, name string, args ...string) error {
	return Run(ctx, Cmd{Path: name, Args: args})
}

// MaybeSudo runs the command directly when root, otherwise prefixes sudo
// when available, otherwise runs directly and lets the command fail.
func MaybeSudo(ctx context.Context, name string, args ...string) error {
	if os.Geteuid() == 0 {
		return RunVerbose(ctx, name, args...)
	}
	if _, err := exec.LookPath("sudo"); err == nil {
		return RunVerbose(ctx, "sudo", append([]string{name}, args...)...)
	}
	return RunVerbose(ctx, name, args...)
}

func stream(r io.Reader) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		fmt.Println(s.Text())
	}
}
