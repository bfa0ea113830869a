package ctl

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"lamactl/internal/probe"
)

// scriptedPolicy answers questions from a fixed script and records what
// was asked. Once the script runs out it declines.
type scriptedPolicy struct {
	answers []bool
	asked   []string
}

func (p *scriptedPolicy) Approve(question string) bool {
	p.asked = append(p.asked, question)
	if len(p.answers) == 0 {
		return false
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a
}

func withToolsUnavailable(t *testing.T) {
	t.Helper()
	orig := fnEnsureTool
	fnEnsureTool = func(ctx context.Context, p *probe.Prober, req probe.ToolRequirement) (probe.Result, error) {
		return probe.Failed, fmt.Errorf("%s unavailable", req.Name)
	}
	t.Cleanup(func() { fnEnsureTool = orig })
}

func TestSetupOffersDegradedContinue(t *testing.T) {
	withToolsUnavailable(t)

	// decline both installs, accept running degraded
	policy := &scriptedPolicy{answers: []bool{false, false, true}}
	if err := setupTools(&Config{Port: -1}, policy); err != nil {
		t.Fatalf("approved degraded continue should succeed: %v", err)
	}
	if len(policy.asked) != 3 {
		t.Fatalf("asked = %q", policy.asked)
	}
	if !strings.Contains(policy.asked[2], "degraded") {
		t.Fatalf("last question should offer degraded mode, got %q", policy.asked[2])
	}
}

func TestSetupAbortsWhenDegradedDeclined(t *testing.T) {
	withToolsUnavailable(t)

	policy := &scriptedPolicy{} // decline everything
	err := setupTools(&Config{Port: -1}, policy)
	if err == nil || !strings.Contains(err.Error(), "setup incomplete") {
		t.Fatalf("err = %v", err)
	}
	// the degraded-mode question must still have been put to the policy
	if !strings.Contains(policy.asked[len(policy.asked)-1], "degraded") {
		t.Fatalf("asked = %q", policy.asked)
	}
}

func TestEnsureDaemonToolFallback(t *testing.T) {
	withToolsUnavailable(t)
	ctx := context.Background()

	// decline the install, accept relying on an already-running daemon
	policy := &scriptedPolicy{answers: []bool{false, true}}
	if err := ensureDaemonTool(ctx, &Config{Port: -1}, policy); err != nil {
		t.Fatalf("fallback should succeed: %v", err)
	}
	if !strings.Contains(policy.asked[1], "already-running daemon") {
		t.Fatalf("asked = %q", policy.asked)
	}

	// decline both questions: abort
	if err := ensureDaemonTool(ctx, &Config{Port: -1}, &scriptedPolicy{}); err == nil {
		t.Fatalf("declining the fallback should abort")
	}

	// approve the install, which fails, then accept the fallback
	policy = &scriptedPolicy{answers: []bool{true, true}}
	if err := ensureDaemonTool(ctx, &Config{Port: -1}, policy); err != nil {
		t.Fatalf("fallback after failed install should succeed: %v", err)
	}

	// --no-install still escalates instead of aborting outright
	policy = &scriptedPolicy{answers: []bool{true}}
	if err := ensureDaemonTool(ctx, &Config{Port: -1, NoInstall: true}, policy); err != nil {
		t.Fatalf("fallback with installs disabled should succeed: %v", err)
	}
	if len(policy.asked) != 1 || !strings.Contains(policy.asked[0], "already-running daemon") {
		t.Fatalf("asked = %q", policy.asked)
	}
}

func TestLoadConfigPortOverride(t *testing.T) {
	t.Setenv("LAMACTL_STATE_FILE", filepath.Join(t.TempDir(), "config.env"))

	rc, err := loadConfig(&Config{Port: -1})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if rc.ServerPort != 8080 {
		t.Fatalf("default port = %d, want 8080", rc.ServerPort)
	}

	rc, err = loadConfig(&Config{Port: 9999})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if rc.ServerPort != 9999 {
		t.Fatalf("flag port = %d, want 9999", rc.ServerPort)
	}

	// 0 is a real value (pick a free port), not "unset"
	rc, err = loadConfig(&Config{Port: 0})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if rc.ServerPort != 0 {
		t.Fatalf("flag port = %d, want 0", rc.ServerPort)
	}
}

func TestModelsSetThenGetRoundTrip(t *testing.T) {
	t.Setenv("LAMACTL_STATE_FILE", filepath.Join(t.TempDir(), "config.env"))

	cfg := &Config{Port: -1}
	if err := fnModelsSet(cfg, "mistral"); err != nil {
		t.Fatalf("models set: %v", err)
	}
	rc, err := loadConfig(cfg)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if rc.ModelName != "mistral" {
		t.Fatalf("ModelName = %q, want mistral", rc.ModelName)
	}
}

func TestChooseFreePortAndBusyCheck(t *testing.T) {
	port, err := chooseFreePort()
	if err != nil {
		t.Fatalf("chooseFreePort: %v", err)
	}
	if port <= 0 {
		t.Fatalf("port = %d", port)
	}
	if busy, _ := isPortBusy(port); busy {
		t.Fatalf("freshly released port %d reported busy", port)
	}
}
