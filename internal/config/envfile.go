package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvFile is a flat KEY=VALUE state file. Keys keep their file order so a
// rewrite preserves entries this program does not recognize.
type EnvFile struct {
	path   string
	order  []string
	values map[string]string
}

// LoadEnvFile reads path. A missing file yields an empty store bound to path.
func LoadEnvFile(path string) (*EnvFile, error) {
	ef := &EnvFile{path: path, values: map[string]string{}}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ef, nil
		}
		return nil, err
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		val = unquote(val)
		if _, seen := ef.values[key]; !seen {
			ef.order = append(ef.order, key)
		}
		ef.values[key] = val
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return ef, nil
}

// Get returns the value for key and whether it was present.
func (ef *EnvFile) Get(key string) (string, bool) {
	v, ok := ef.values[key]
	return v, ok
}

// Set stores key=value, appending new keys at the end.
func (ef *EnvFile) Set(key, value string) {
	if _, seen := ef.values[key]; !seen {
		ef.order = append(ef.order, key)
	}
	ef.values[key] = value
}

// Save writes the store back to its path via a temp file and rename, so a
// concurrent reader never observes a truncated file.
func (ef *EnvFile) Save() error {
	dir := filepath.Dir(ef.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errConfigWrite(fmt.Errorf("create %s: %w", dir, err))
	}
	tmp, err := os.CreateTemp(dir, ".env-*")
	if err != nil {
		return errConfigWrite(err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, key := range ef.order {
		if _, err := fmt.Fprintf(w, "%s=%s\n", key, quoteIfNeeded(ef.values[key])); err != nil {
			tmp.Close()
			return errConfigWrite(err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return errConfigWrite(err)
	}
	if err := tmp.Close(); err != nil {
		return errConfigWrite(err)
	}
	if err := os.Rename(tmp.Name(), ef.path); err != nil {
		return errConfigWrite(err)
	}
	return nil
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

func quoteIfNeeded(v string) string {
	if strings.ContainsAny(v, " \t#") {
		return "\"" + v + "\""
	}
	return v
}

// configWriteError marks failures while persisting the state file.
type configWriteError struct{ err error }

func (e configWriteError) Error() string { return "config write: " + e.err.Error() }
func (e configWriteError) Unwrap() error { return e.err }

func errConfigWrite(err error) error { return configWriteError{err: err} }

// IsConfigWrite reports whether err came from persisting the state file.
func IsConfigWrite(err error) bool {
	_, ok := err.(configWriteError)
	return ok
}
