package types

import "time"

// ModelInfo describes one model installed in the daemon's local registry.
type ModelInfo struct {
	// Full model name including tag, e.g. "llama3:latest".
	Name string `json:"name"`
	// Artifact size in bytes.
	Size int64 `json:"size,omitempty"`
	// When the daemon registry entry was last created or modified.
	ModifiedAt time.Time `json:"modified_at,omitempty"`
}

// BaseName returns the model name with any ":tag" suffix removed.
func (m ModelInfo) BaseName() string {
	for i := 0; i < len(m.Name); i++ {
		if m.Name[i] == ':' {
			return m.Name[:i]
		}
	}
	return m.Name
}

// ModelDescriptor captures everything needed to build a local model
// from a remote registry artifact.
type ModelDescriptor struct {
	// Logical name requested by the user, e.g. "llama3".
	Name string
	// Remote source locator passed to the daemon's pull operation.
	// Defaults to Name when empty.
	Source string
	// Local alias to register the built model under.
	Alias string
	// Context window size in tokens. Zero leaves the daemon default.
	ContextWindow int
	// Optional system prompt baked into the build manifest.
	SystemPrompt string
	// Optional quantization variant, e.g. "q4_0".
	Quantization string
}
