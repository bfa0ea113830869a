package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Settings holds optional service parameters from a structured config file.
// Zero values mean "unspecified" and keep the layered defaults.
type Settings struct {
	OllamaHost            string   `json:"ollama_host" yaml:"ollama_host" toml:"ollama_host"`
	ModelName             string   `json:"model_name" yaml:"model_name" toml:"model_name"`
	FallbackModels        []string `json:"fallback_models" yaml:"fallback_models" toml:"fallback_models"`
	AutoSelectModel       *bool    `json:"auto_select_model" yaml:"auto_select_model" toml:"auto_select_model"`
	RequestTimeoutSeconds int      `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	ServerPort            int      `json:"server_port" yaml:"server_port" toml:"server_port"`
	CORSEnabled           bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins           []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// LoadSettings reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func LoadSettings(path string) (Settings, error) {
	var s Settings
	if path == "" {
		return s, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &s); err != nil {
			return s, err
		}
	case ".json":
		if err := json.Unmarshal(b, &s); err != nil {
			return s, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &s); err != nil {
			return s, err
		}
	default:
		return s, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return s, nil
}
