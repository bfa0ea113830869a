package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnvFileAbsent(t *testing.T) {
	ef, err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("absent file should not error: %v", err)
	}
	if _, ok := ef.Get(KeyModelName); ok {
		t.Fatalf("empty store should have no keys")
	}
}

func TestEnvFileRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.env")
	ef, err := LoadEnvFile(p)
	if err != nil {
		t.Fatal(err)
	}
	ef.Set(KeyModelName, "llama3-custom-20240101")
	if err := ef.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	ef2, err := LoadEnvFile(p)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := ef2.Get(KeyModelName)
	if !ok || got != "llama3-custom-20240101" {
		t.Fatalf("round trip: got %q ok=%v", got, ok)
	}
}

func TestEnvFilePreservesUnrelatedKeys(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.env")
	content := "# managed by hand\nSOME_OTHER_TOOL=keepme\nMODEL_NAME=old\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	ef, err := LoadEnvFile(p)
	if err != nil {
		t.Fatal(err)
	}
	ef.Set(KeyModelName, "newmodel")
	if err := ef.Save(); err != nil {
		t.Fatal(err)
	}
	ef2, err := LoadEnvFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := ef2.Get("SOME_OTHER_TOOL"); v != "keepme" {
		t.Fatalf("unrelated key lost: %q", v)
	}
	if v, _ := ef2.Get(KeyModelName); v != "newmodel" {
		t.Fatalf("updated key: %q", v)
	}
}

func TestEnvFileQuoting(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.env")
	if err := os.WriteFile(p, []byte("A=\"with space\"\nB='single'\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ef, err := LoadEnvFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := ef.Get("A"); v != "with space" {
		t.Fatalf("double-quoted: %q", v)
	}
	if v, _ := ef.Get("B"); v != "single" {
		t.Fatalf("single-quoted: %q", v)
	}
	ef.Set("C", "has space")
	if err := ef.Save(); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "C=\"has space\"") {
		t.Fatalf("value with space should be quoted, got:\n%s", raw)
	}
}

func TestEnvFileSaveLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.env")
	ef, err := LoadEnvFile(p)
	if err != nil {
		t.Fatal(err)
	}
	ef.Set("K", "v")
	if err := ef.Save(); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.env" {
		t.Fatalf("unexpected dir contents: %v", entries)
	}
}
