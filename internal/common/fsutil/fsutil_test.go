package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandHome("~/state/config.env")
	if err != nil {
		t.Fatalf("ExpandHome: %v", err)
	}
	if want := filepath.Join(home, "state", "config.env"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if got, _ := ExpandHome("~"); got != home {
		t.Fatalf("bare tilde: got %q, want %q", got, home)
	}
	if got, _ := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Fatalf("absolute path changed: %q", got)
	}
	if got, _ := ExpandHome(""); got != "" {
		t.Fatalf("empty path changed: %q", got)
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		t.Fatalf("dir not created: %v", err)
	}
	// second call is a no-op
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir twice: %v", err)
	}
	if err := EnsureDir(""); err != nil {
		t.Fatalf("EnsureDir empty: %v", err)
	}
}

func TestPathExists(t *testing.T) {
	f := filepath.Join(t.TempDir(), "x")
	if PathExists(f) {
		t.Fatalf("missing file reported present")
	}
	if err := os.WriteFile(f, []byte("y"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !PathExists(f) {
		t.Fatalf("present file reported missing")
	}
}
