// Package config loads layered runtime configuration: built-in defaults,
// then an optional structured settings file, then the flat KEY=VALUE state
// file, then LAMACTL_* environment variables. The state file is the only
// layer this program writes back.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"lamactl/internal/common/fsutil"
)

// State file keys. Unrecognized keys are preserved on rewrite.
const (
	KeyModelName      = "MODEL_NAME"
	KeyFallbackModels = "FALLBACK_MODELS"
	KeyAutoSelect     = "AUTO_SELECT_MODEL"
	KeyRequestTimeout = "REQUEST_TIMEOUT_SECONDS"
	KeyServerPort     = "SERVER_PORT"
	KeyOllamaHost     = "OLLAMA_HOST"
)

const (
	defaultOllamaHost     = "http://127.0.0.1:11434"
	defaultServerPort     = 8080
	defaultTimeoutSeconds = 120
)

// Config is the resolved process-wide configuration, constructed once at
// startup and threaded through the components that need it.
type Config struct {
	OllamaHost            string
	ModelName             string
	FallbackModels        []string
	AutoSelect            bool
	RequestTimeoutSeconds int
	ServerPort            int
	CORSEnabled           bool
	CORSOrigins           []string

	// StatePath is where resolution results are persisted.
	StatePath string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OllamaHost:            defaultOllamaHost,
		ServerPort:            defaultServerPort,
		RequestTimeoutSeconds: defaultTimeoutSeconds,
		AutoSelect:            true,
		StatePath:             DefaultStatePath(),
	}
}

// DefaultStatePath returns the state file location, honoring
// LAMACTL_STATE_FILE and falling back to ~/.lamactl/config.env.
func DefaultStatePath() string {
	if p := os.Getenv("LAMACTL_STATE_FILE"); p != "" {
		if expanded, err := fsutil.ExpandHome(p); err == nil {
			return expanded
		}
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".lamactl", "config.env")
	}
	return filepath.Join(home, ".lamactl", "config.env")
}

// Load resolves the full configuration. settingsPath may be empty; a missing
// or partial state file is tolerated (missing keys keep their defaults).
func Load(settingsPath string) (Config, error) {
	cfg := Default()

	if settingsPath != "" {
		s, err := LoadSettings(settingsPath)
		if err != nil {
			return cfg, err
		}
		cfg.applySettings(s)
	}

	ef, err := LoadEnvFile(cfg.StatePath)
	if err != nil {
		return cfg, err
	}
	cfg.applyState(ef)
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applySettings(s Settings) {
	if s.OllamaHost != "" {
		c.OllamaHost = s.OllamaHost
	}
	if s.ModelName != "" {
		c.ModelName = s.ModelName
	}
	if len(s.FallbackModels) > 0 {
		c.FallbackModels = append([]string(nil), s.FallbackModels...)
	}
	if s.AutoSelectModel != nil {
		c.AutoSelect = *s.AutoSelectModel
	}
	if s.RequestTimeoutSeconds > 0 {
		c.RequestTimeoutSeconds = s.RequestTimeoutSeconds
	}
	if s.ServerPort > 0 {
		c.ServerPort = s.ServerPort
	}
	c.CORSEnabled = s.CORSEnabled
	if len(s.CORSOrigins) > 0 {
		c.CORSOrigins = append([]string(nil), s.CORSOrigins...)
	}
}

func (c *Config) applyState(ef *EnvFile) {
	if v, ok := ef.Get(KeyModelName); ok && v != "" {
		c.ModelName = v
	}
	if v, ok := ef.Get(KeyFallbackModels); ok && v != "" {
		c.FallbackModels = splitList(v)
	}
	if v, ok := ef.Get(KeyAutoSelect); ok && v != "" {
		c.AutoSelect = parseBool(v, c.AutoSelect)
	}
	if v, ok := ef.Get(KeyRequestTimeout); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RequestTimeoutSeconds = n
		}
	}
	if v, ok := ef.Get(KeyServerPort); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ServerPort = n
		}
	}
	if v, ok := ef.Get(KeyOllamaHost); ok && v != "" {
		c.OllamaHost = v
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LAMACTL_MODEL"); v != "" {
		c.ModelName = v
	}
	if v := os.Getenv("LAMACTL_FALLBACK_MODELS"); v != "" {
		c.FallbackModels = splitList(v)
	}
	if v := os.Getenv("LAMACTL_AUTO_SELECT"); v != "" {
		c.AutoSelect = parseBool(v, c.AutoSelect)
	}
	if v := os.Getenv("LAMACTL_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ServerPort = n
		}
	}
	if v := os.Getenv("LAMACTL_OLLAMA_HOST"); v != "" {
		c.OllamaHost = v
	}
}

// RequestTimeout returns the timeout for daemon HTTP calls, falling back to
// the default when unspecified.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return defaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// FallbackChain returns the primary model followed by the fallbacks, with
// blanks and duplicates removed. The primary is always tried first.
func (c Config) FallbackChain() []string {
	seen := map[string]bool{}
	var chain []string
	for _, name := range append([]string{c.ModelName}, c.FallbackModels...) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		chain = append(chain, name)
	}
	return chain
}

// SaveModelName persists the winning model alias into the state file,
// preserving unrelated keys.
func SaveModelName(statePath, name string) error {
	ef, err := LoadEnvFile(statePath)
	if err != nil {
		return errConfigWrite(err)
	}
	ef.Set(KeyModelName, name)
	return ef.Save()
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
