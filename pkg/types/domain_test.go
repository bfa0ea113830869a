package types

import "testing"

func TestBaseName(t *testing.T) {
	cases := map[string]string{
		"llama3:latest":   "llama3",
		"llama3":          "llama3",
		"mistral:7b-q4_0": "mistral",
		"":                "",
	}
	for name, want := range cases {
		if got := (ModelInfo{Name: name}).BaseName(); got != want {
			t.Fatalf("BaseName(%q) = %q, want %q", name, got, want)
		}
	}
}
