// Package probe detects required external tools and installs missing ones
// through the host's package manager, with a generic installer fallback.
package probe

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"lamactl/internal/execx"
)

// Result classifies the outcome of EnsureTool.
type Result int

const (
	// Satisfied: the tool was already on the search path; no side effects.
	Satisfied Result = iota
	// Installed: the tool was missing and an install strategy succeeded.
	Installed
	// Failed: the tool is missing and could not be installed.
	Failed
)

func (r Result) String() string {
	switch r {
	case Satisfied:
		return "satisfied"
	case Installed:
		return "installed"
	default:
		return "failed"
	}
}

// PackageManager identifies the host's package-manager capability,
// detected once and then dispatched on.
type PackageManager int

const (
	ManagerUnknown PackageManager = iota
	ManagerApt                    // Debian/Ubuntu
	ManagerDnf                    // RHEL/Fedora
	ManagerPacman                 // Arch
	ManagerBrew                   // macOS Homebrew
	ManagerApk                    // Alpine
	ManagerZypper                 // openSUSE
	// ManagerAny marks strategies usable regardless of package manager,
	// e.g. a vendor install script fetched with curl.
	ManagerAny
)

func (m PackageManager) String() string {
	switch m {
	case ManagerApt:
		return "apt"
	case ManagerDnf:
		return "dnf"
	case ManagerPacman:
		return "pacman"
	case ManagerBrew:
		return "brew"
	case ManagerApk:
		return "apk"
	case ManagerZypper:
		return "zypper"
	case ManagerAny:
		return "any"
	default:
		return "unknown"
	}
}

// detectOrder is the fixed probe priority for manager binaries.
var detectOrder = []struct {
	bin string
	mgr PackageManager
}{
	{"apt-get", ManagerApt},
	{"dnf", ManagerDnf},
	{"pacman", ManagerPacman},
	{"brew", ManagerBrew},
	{"apk", ManagerApk},
	{"zypper", ManagerZypper},
}

// InstallStrategy is one attempt at installing a tool. Attempts are
// independent: a later strategy never re-runs an earlier one.
type InstallStrategy struct {
	Manager PackageManager
	Desc    string
	Steps   [][]string
	Sudo    bool
}

// ToolRequirement describes one externally required tool.
type ToolRequirement struct {
	Name       string
	Strategies []InstallStrategy
}

// ToolStatus is one row of a CheckAll report.
type ToolStatus struct {
	Name    string
	Present bool
	Path    string
}

// Prober checks and installs tool requirements. The exec hooks exist so
// tests can observe install attempts without touching the host.
type Prober struct {
	look     func(string) (string, error)
	run      func(ctx context.Context, sudo bool, name string, args ...string) error
	installs bool

	mgr         PackageManager
	mgrDetected bool
}

// New returns a Prober. With installsEnabled false, EnsureTool never runs
// package-manager commands and missing tools fail immediately.
func New(installsEnabled bool) *Prober {
	return &Prober{
		look: exec.LookPath,
		run: func(ctx context.Context, sudo bool, name string, args ...string) error {
			if sudo {
				return execx.MaybeSudo(ctx, name, args...)
			}
			// install steps can be long (vendor script downloads); stream
			// their output as it arrives
			return execx.Run(ctx, execx.Cmd{Path: name, Args: args, Stream: true})
		},
		installs: installsEnabled,
	}
}

// Manager returns the detected package manager, probing at most once.
func (p *Prober) Manager() PackageManager {
	if !p.mgrDetected {
		p.mgr = ManagerUnknown
		for _, d := range detectOrder {
			if _, err := p.look(d.bin); err == nil {
				p.mgr = d.mgr
				break
			}
		}
		p.mgrDetected = true
	}
	return p.mgr
}

// EnsureTool checks for tool on the search path and, when absent and
// installs are enabled, tries its install strategies in priority order.
// Repeated calls with the tool present are side-effect-free.
func (p *Prober) EnsureTool(ctx context.Context, tool ToolRequirement) (Result, error) {
	if _, err := p.look(tool.Name); err == nil {
		return Satisfied, nil
	}
	if !p.installs {
		return Failed, errToolMissing(tool.Name)
	}

	mgr := p.Manager()
	var attempts []string
	for _, st := range tool.Strategies {
		if st.Manager != ManagerAny && st.Manager != mgr {
			continue
		}
		if err := p.runStrategy(ctx, st); err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", st.Desc, err))
			continue
		}
		if _, err := p.look(tool.Name); err == nil {
			return Installed, nil
		}
		attempts = append(attempts, fmt.Sprintf("%s: completed but %s still not on PATH", st.Desc, tool.Name))
	}
	if len(attempts) == 0 {
		return Failed, errToolMissing(tool.Name)
	}
	return Failed, errInstallFailed(tool.Name, attempts)
}

func (p *Prober) runStrategy(ctx context.Context, st InstallStrategy) error {
	for _, step := range st.Steps {
		if len(step) == 0 {
			continue
		}
		if err := p.run(ctx, st.Sudo, step[0], step[1:]...); err != nil {
			return err
		}
	}
	return nil
}

// CheckAll reports presence of every tool without any install side effects.
func (p *Prober) CheckAll(tools []ToolRequirement) []ToolStatus {
	out := make([]ToolStatus, 0, len(tools))
	for _, tool := range tools {
		path, err := p.look(tool.Name)
		out = append(out, ToolStatus{Name: tool.Name, Present: err == nil, Path: path})
	}
	return out
}

// Missing filters a CheckAll report down to the absent tools.
func Missing(statuses []ToolStatus) []string {
	var names []string
	for _, s := range statuses {
		if !s.Present {
			names = append(names, s.Name)
		}
	}
	return names
}

// toolMissingError: the tool is absent and nothing was attempted.
type toolMissingError struct{ name string }

func (e toolMissingError) Error() string { return "required tool not found: " + e.name }

func errToolMissing(name string) error { return toolMissingError{name: name} }

// IsToolMissing reports whether err means a tool is absent with no install attempted.
func IsToolMissing(err error) bool {
	_, ok := err.(toolMissingError)
	return ok
}

// installFailedError carries every attempted strategy with its reason.
type installFailedError struct {
	name     string
	attempts []string
}

func (e installFailedError) Error() string {
	return fmt.Sprintf("install %s failed after %d attempt(s): %s",
		e.name, len(e.attempts), strings.Join(e.attempts, "; "))
}

func errInstallFailed(name string, attempts []string) error {
	return installFailedError{name: name, attempts: attempts}
}

// IsInstallFailed reports whether err means every install strategy failed.
func IsInstallFailed(err error) bool {
	_, ok := err.(installFailedError)
	return ok
}
