package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lamactl/pkg/types"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(ts.URL, 5*time.Second, zerolog.Nop()), ts
}

func TestVersion(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/version" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"version": "0.3.9"})
	}))
	v, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != "0.3.9" {
		t.Fatalf("got %q", v)
	}
}

func TestVersionUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second, zerolog.Nop())
	_, err := c.Version(context.Background())
	if err == nil || !IsUnreachable(err) {
		t.Fatalf("expected unreachable, got %v", err)
	}
	if c.Healthy(context.Background()) {
		t.Fatalf("healthy should be false")
	}
}

func TestTags(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"models": []map[string]any{
			{"name": "llama3:latest", "size": 42, "modified_at": "2024-05-01T10:00:00Z"},
			{"name": "phi3:mini", "size": 7},
		}})
	}))
	models, err := c.Tags(context.Background())
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	if len(models) != 2 || models[0].Name != "llama3:latest" || models[0].BaseName() != "llama3" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

func TestPullProgressAndError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"pulling manifest"}` + "\n"))
		w.Write([]byte(`{"status":"downloading","total":100,"completed":50}` + "\n"))
		w.Write([]byte(`{"status":"success"}` + "\n"))
	}))
	var seen []string
	if err := c.Pull(context.Background(), "llama3", func(p PullProgress) { seen = append(seen, p.Status) }); err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(seen) != 3 || seen[1] != "downloading" {
		t.Fatalf("progress: %v", seen)
	}

	c2, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error: blob not found"}` + "\n"))
	}))
	err := c2.Pull(context.Background(), "nope", nil)
	if err == nil || !IsDownloadFailed(err) {
		t.Fatalf("expected download failure, got %v", err)
	}
}

func TestCreateRejected(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid modelfile", http.StatusBadRequest)
	}))
	err := c.Create(context.Background(), "m", "FROM llama3\n")
	if err == nil || !IsRegistrationFailed(err) {
		t.Fatalf("expected registration failure, got %v", err)
	}
}

func TestGenerate(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["model"] != "llama3" {
			t.Fatalf("model: %v", req["model"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model": "llama3", "response": "hi", "done": true, "total_duration": int64(2_000_000_000),
		})
	}))
	resp, err := c.Generate(context.Background(), types.CompleteRequest{Model: "llama3", Prompt: "hello"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Response != "hi" || !resp.Done || resp.TotalDurationMS != 2000 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGenerateFallsBackToChat(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			http.Error(w, "broken", http.StatusInternalServerError)
		case "/api/chat":
			json.NewEncoder(w).Encode(map[string]any{
				"model":   "llama3",
				"message": map[string]string{"role": "assistant", "content": "via chat"},
				"done":    true,
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	resp, err := c.Generate(context.Background(), types.CompleteRequest{Model: "llama3", Prompt: "hello"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Response != "via chat" {
		t.Fatalf("chat fallback not used: %+v", resp)
	}
}

func TestGenerateModelNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model 'ghost' not found", http.StatusNotFound)
	}))
	_, err := c.Generate(context.Background(), types.CompleteRequest{Model: "ghost", Prompt: "x"})
	if err == nil || !IsModelNotFound(err) {
		t.Fatalf("expected model not found, got %v", err)
	}
}
