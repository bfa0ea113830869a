package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func loadWithState(t *testing.T, settingsPath, stateContent string) Config {
	t.Helper()
	statePath := filepath.Join(t.TempDir(), "config.env")
	if stateContent != "" {
		if err := os.WriteFile(statePath, []byte(stateContent), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("LAMACTL_STATE_FILE", statePath)
	cfg, err := Load(settingsPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadWithState(t, "", "")
	if cfg.OllamaHost != "http://127.0.0.1:11434" {
		t.Fatalf("default host: %q", cfg.OllamaHost)
	}
	if cfg.ServerPort != 8080 || cfg.RequestTimeoutSeconds != 120 || !cfg.AutoSelect {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestStateFileOverridesDefaults(t *testing.T) {
	cfg := loadWithState(t, "", "MODEL_NAME=mistral\nFALLBACK_MODELS=llama3, phi3\nAUTO_SELECT_MODEL=false\nSERVER_PORT=9999\nREQUEST_TIMEOUT_SECONDS=15\n")
	if cfg.ModelName != "mistral" || cfg.ServerPort != 9999 || cfg.RequestTimeoutSeconds != 15 || cfg.AutoSelect {
		t.Fatalf("state not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.FallbackModels, []string{"llama3", "phi3"}) {
		t.Fatalf("fallbacks: %v", cfg.FallbackModels)
	}
}

func TestEnvOverridesStateFile(t *testing.T) {
	t.Setenv("LAMACTL_MODEL", "phi3")
	t.Setenv("LAMACTL_PORT", "7001")
	cfg := loadWithState(t, "", "MODEL_NAME=mistral\nSERVER_PORT=9999\n")
	if cfg.ModelName != "phi3" || cfg.ServerPort != 7001 {
		t.Fatalf("env should win: %+v", cfg)
	}
}

func TestSettingsFileLayer(t *testing.T) {
	d := t.TempDir()
	settings := filepath.Join(d, "lamactl.yaml")
	if err := os.WriteFile(settings, []byte("model_name: from-settings\nserver_port: 6001\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := loadWithState(t, settings, "MODEL_NAME=from-state\n")
	// state file sits above the settings file
	if cfg.ModelName != "from-state" {
		t.Fatalf("layering broken: %q", cfg.ModelName)
	}
	if cfg.ServerPort != 6001 {
		t.Fatalf("settings port: %d", cfg.ServerPort)
	}
}

func TestFallbackChain(t *testing.T) {
	cfg := Config{ModelName: "llama3", FallbackModels: []string{" mistral ", "llama3", "", "phi3"}}
	got := cfg.FallbackChain()
	want := []string{"llama3", "mistral", "phi3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("chain: got %v want %v", got, want)
	}
}

func TestSaveModelNamePreservesKeys(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "config.env")
	if err := os.WriteFile(statePath, []byte("OTHER=1\nMODEL_NAME=x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := SaveModelName(statePath, "winner"); err != nil {
		t.Fatal(err)
	}
	ef, err := LoadEnvFile(statePath)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := ef.Get("OTHER"); v != "1" {
		t.Fatalf("lost unrelated key")
	}
	if v, _ := ef.Get(KeyModelName); v != "winner" {
		t.Fatalf("model name: %q", v)
	}
}

func TestRequestTimeoutDefault(t *testing.T) {
	var cfg Config
	if cfg.RequestTimeout().Seconds() != 120 {
		t.Fatalf("default timeout: %v", cfg.RequestTimeout())
	}
	cfg.RequestTimeoutSeconds = 5
	if cfg.RequestTimeout().Seconds() != 5 {
		t.Fatalf("explicit timeout: %v", cfg.RequestTimeout())
	}
}
