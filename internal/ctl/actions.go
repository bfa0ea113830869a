package ctl

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lamactl/internal/common/fsutil"
	"lamactl/internal/config"
	"lamactl/internal/httpapi"
	"lamactl/internal/launcher"
	"lamactl/internal/ollama"
	"lamactl/internal/probe"
	"lamactl/internal/resolver"
)

// Indirection layer to allow stubbing in tests
var (
	fnCheck      = checkRequirements
	fnSetup      = setupTools
	fnRun        = runStack
	fnServe      = serveAPI
	fnModelsGet  = modelsGet
	fnModelsSet  = modelsSet
	fnModelsList = modelsList

	fnEnsureTool = func(ctx context.Context, p *probe.Prober, req probe.ToolRequirement) (probe.Result, error) {
		return p.EnsureTool(ctx, req)
	}
)

func loadConfig(cfg *Config) (config.Config, error) {
	settingsPath, err := fsutil.ExpandHome(cfg.SettingsPath)
	if err != nil {
		return config.Config{}, err
	}
	rc, err := config.Load(settingsPath)
	if err != nil {
		return config.Config{}, err
	}
	if cfg.Port >= 0 {
		rc.ServerPort = cfg.Port
	}
	return rc, nil
}

// checkRequirements reports tool and daemon state without side effects.
func checkRequirements(cfg *Config) error {
	rc, err := loadConfig(cfg)
	if err != nil {
		return err
	}

	p := probe.New(false)
	info("[check] package manager: %s", p.Manager())

	statuses := p.CheckAll(probe.DefaultRequirements())
	for _, st := range statuses {
		if st.Present {
			info("[check] %s: ok (%s)", st.Name, st.Path)
		} else {
			warn("[check] %s: missing", st.Name)
		}
	}

	client := ollama.New(rc.OllamaHost, rc.RequestTimeout(), newZerolog(cfg.LogLvl))
	if v, err := client.Version(context.Background()); err != nil {
		warn("[check] daemon at %s: not reachable", rc.OllamaHost)
	} else {
		info("[check] daemon at %s: version %s", rc.OllamaHost, v)
	}

	if missing := probe.Missing(statuses); len(missing) > 0 {
		return fmt.Errorf("missing required tools: %s (run 'lamactl setup')", strings.Join(missing, ", "))
	}
	return nil
}

// setupTools installs every missing requirement, one at a time so a
// failure on one tool does not block the rest of the report. When tools
// remain missing the decision on continuing in degraded mode is the
// policy's, not ours.
func setupTools(cfg *Config, policy DecisionPolicy) error {
	ctx := context.Background()
	checker := probe.New(false)
	installer := probe.New(true)
	var failed []string
	for _, req := range probe.DefaultRequirements() {
		if _, err := fnEnsureTool(ctx, checker, req); err == nil {
			info("[setup] %s: already installed", req.Name)
			continue
		}
		if cfg.NoInstall {
			warn("[setup] %s: missing (installs disabled)", req.Name)
			failed = append(failed, req.Name)
			continue
		}
		if !policy.Approve(fmt.Sprintf("%s is not installed. Install it now?", req.Name)) {
			warn("[setup] %s: missing, install declined", req.Name)
			failed = append(failed, req.Name)
			continue
		}
		if _, err := fnEnsureTool(ctx, installer, req); err != nil {
			errl("[setup] %s: %v", req.Name, err)
			failed = append(failed, req.Name)
			continue
		}
		info("[setup] %s: installed", req.Name)
	}
	if len(failed) > 0 {
		list := strings.Join(failed, ", ")
		if policy.Approve(fmt.Sprintf("setup incomplete (%s); continue in degraded mode?", list)) {
			warn("[setup] continuing without: %s", list)
			return nil
		}
		return fmt.Errorf("setup incomplete: %s", list)
	}
	return nil
}

// ensureDaemonTool makes sure the daemon binary exists before any launch
// attempt, asking the decision policy before touching the host. When the
// binary cannot be obtained the policy decides whether to press on: a
// daemon already listening on the configured host needs no local binary.
func ensureDaemonTool(ctx context.Context, cfg *Config, policy DecisionPolicy) error {
	p := probe.New(false)
	for _, req := range probe.DefaultRequirements() {
		if req.Name != "ollama" {
			continue
		}
		if _, err := fnEnsureTool(ctx, p, req); err == nil {
			return nil
		}
		if cfg.NoInstall {
			return daemonBinaryFallback(policy, fmt.Errorf("ollama is not installed and installs are disabled"))
		}
		if !policy.Approve("ollama is not installed. Install it now?") {
			return daemonBinaryFallback(policy, fmt.Errorf("ollama is not installed; declined to install"))
		}
		if _, err := fnEnsureTool(ctx, probe.New(true), req); err != nil {
			errl("[setup] ollama: %v", err)
			return daemonBinaryFallback(policy, err)
		}
		return nil
	}
	return nil
}

func daemonBinaryFallback(policy DecisionPolicy, cause error) error {
	if policy.Approve("ollama binary is unavailable; continue and rely on an already-running daemon?") {
		warn("[daemon] continuing without local binary: %v", cause)
		return nil
	}
	return cause
}

// bringUp ensures tools, daemon, and a resolved model, in that order.
func bringUp(ctx context.Context, cfg *Config, policy DecisionPolicy) (*ollama.Client, *launcher.Launcher, resolver.Resolution, config.Config, error) {
	var res resolver.Resolution

	rc, err := loadConfig(cfg)
	if err != nil {
		return nil, nil, res, rc, err
	}
	zl := newZerolog(cfg.LogLvl)
	client := ollama.New(rc.OllamaHost, rc.RequestTimeout(), zl)

	if err := ensureDaemonTool(ctx, cfg, policy); err != nil {
		return nil, nil, res, rc, err
	}

	l := launcher.New(client, "ollama", []string{"serve"}, launcher.DefaultLogPath(), zl)
	status, err := l.EnsureDaemon(ctx)
	if err != nil {
		return nil, nil, res, rc, fmt.Errorf("daemon startup: %w", err)
	}
	info("[daemon] %s", status)

	chain := rc.FallbackChain()
	autoSelect := rc.AutoSelect
	if len(chain) == 0 && !autoSelect {
		if !policy.Approve("no model configured; auto-select an installed model?") {
			l.Shutdown()
			return nil, nil, res, rc, fmt.Errorf("no model configured (set MODEL_NAME or run 'lamactl models set')")
		}
		autoSelect = true
	}

	r := resolver.New(client, zl, func(name string) error {
		return config.SaveModelName(rc.StatePath, name)
	})
	res, err = r.Resolve(ctx, chain, resolver.Options{
		AutoSelect: autoSelect,
		Progress: func(pp ollama.PullProgress) {
			debug("[pull] %s", pp.Status)
		},
	})
	if err != nil {
		l.Shutdown()
		return nil, nil, res, rc, err
	}
	info("[model] using %s (%s)", res.Name, res.Source)
	for _, a := range res.Attempts {
		warn("[model] skipped %s: %s", a.Alias, a.Reason)
	}
	return client, l, res, rc, nil
}

// runStack brings the daemon and model up and leaves them running.
func runStack(cfg *Config, policy DecisionPolicy) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_, l, res, _, err := bringUp(ctx, cfg, policy)
	if err != nil {
		return err
	}
	if l.Owned() {
		info("[run] daemon started (pid %d), model %s ready", l.PID(), res.Name)
	} else {
		info("[run] daemon already running, model %s ready", res.Name)
	}
	return nil
}

// serveAPI runs the full flow and serves the proxy API until interrupted.
func serveAPI(cfg *Config, policy DecisionPolicy) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, l, res, rc, err := bringUp(ctx, cfg, policy)
	if err != nil {
		return err
	}
	defer l.Shutdown()

	port := rc.ServerPort
	if port == 0 {
		port, err = chooseFreePort()
		if err != nil {
			return fmt.Errorf("choose free port: %w", err)
		}
	} else if busy, desc := isPortBusy(port); busy {
		return fmt.Errorf("port %d is in use (%s); pick another with --port or use --port 0", port, desc)
	}

	httpapi.SetLogger(newZerolog(cfg.LogLvl))
	if rc.CORSEnabled {
		httpapi.SetCORSOptions(true, rc.CORSOrigins,
			[]string{"GET", "POST", "OPTIONS"},
			[]string{"Accept", "Content-Type"})
	}
	mux := httpapi.NewMux(newCompletionService(client, res.Name))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		info("[serve] listening on :%d (model %s)", port, res.Name)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		warn("[serve] graceful shutdown: %v", err)
	}
	return nil
}

func modelsGet(cfg *Config) error {
	rc, err := loadConfig(cfg)
	if err != nil {
		return err
	}
	if rc.ModelName == "" {
		fmt.Println("(no model configured)")
		return nil
	}
	fmt.Println(rc.ModelName)
	return nil
}

func modelsSet(cfg *Config, name string) error {
	rc, err := loadConfig(cfg)
	if err != nil {
		return err
	}
	if err := config.SaveModelName(rc.StatePath, name); err != nil {
		return err
	}
	info("[models] active model set to %s", name)
	return nil
}

func modelsList(cfg *Config) error {
	rc, err := loadConfig(cfg)
	if err != nil {
		return err
	}
	client := ollama.New(rc.OllamaHost, rc.RequestTimeout(), newZerolog(cfg.LogLvl))
	models, err := client.Tags(context.Background())
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Println("(no models installed)")
		return nil
	}
	for _, m := range models {
		if m.Size > 0 {
			fmt.Printf("%s\t%.1f GB\n", m.Name, float64(m.Size)/1e9)
		} else {
			fmt.Println(m.Name)
		}
	}
	return nil
}
