package ctl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lamactl/internal/ollama"
	"lamactl/pkg/types"
)

func TestCompletionServiceFillsDefaultModel(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		gotModel, _ = body["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"model": gotModel, "response": "ok", "done": true})
	}))
	defer srv.Close()

	client := ollama.New(srv.URL, 5*time.Second, zerolog.Nop())
	svc := newCompletionService(client, "llama3-custom-20240601120000")

	resp, err := svc.Complete(context.Background(), types.CompleteRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if gotModel != "llama3-custom-20240601120000" {
		t.Fatalf("model sent = %q, want resolved default", gotModel)
	}
	if resp.Response != "ok" {
		t.Fatalf("response = %q", resp.Response)
	}

	// explicit model wins over the default
	if _, err := svc.Complete(context.Background(), types.CompleteRequest{Model: "other", Prompt: "hi"}); err != nil {
		t.Fatalf("Complete explicit: %v", err)
	}
	if gotModel != "other" {
		t.Fatalf("model sent = %q, want other", gotModel)
	}
}

func TestCompletionServiceReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"version":"0.1.0"}`))
	}))
	defer srv.Close()

	svc := newCompletionService(ollama.New(srv.URL, time.Second, zerolog.Nop()), "m")
	if !svc.Ready(context.Background()) {
		t.Fatalf("Ready = false against live server")
	}

	down := newCompletionService(ollama.New("http://127.0.0.1:1", time.Second, zerolog.Nop()), "m")
	if down.Ready(context.Background()) {
		t.Fatalf("Ready = true against dead address")
	}
}
