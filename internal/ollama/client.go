// Package ollama is a client for the local model daemon's control surface:
// health probe, installed-model listing, artifact pull, model registration
// from a build manifest, and prompt completion.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lamactl/pkg/types"
)

// Client talks to one daemon instance over HTTP.
type Client struct {
	host    string
	http    *http.Client
	probing *http.Client
	log     zerolog.Logger
}

// New constructs a Client for host (e.g. "http://127.0.0.1:11434").
// timeout bounds regular API calls; the health probe uses a much shorter
// connect timeout so readiness polling stays responsive.
func New(host string, timeout time.Duration, log zerolog.Logger) *Client {
	host = strings.TrimRight(host, "/")
	return &Client{
		host: host,
		http: &http.Client{Timeout: timeout},
		probing: &http.Client{
			Timeout: 2 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 500 * time.Millisecond}).DialContext,
			},
		},
		log: log,
	}
}

// Host returns the daemon base URL.
func (c *Client) Host() string { return c.host }

// Version probes GET /api/version. A connection failure maps to the
// unreachable error class; any 2xx means the daemon is up.
func (c *Client) Version(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/version", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.probing.Do(req)
	if err != nil {
		return "", errUnreachable(c.host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errDaemonStatus("version", resp.StatusCode, "")
	}
	var body struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.Version, nil
}

// Healthy reports whether the daemon answers its health probe.
func (c *Client) Healthy(ctx context.Context) bool {
	_, err := c.Version(ctx)
	return err == nil
}

type tagsResponse struct {
	Models []struct {
		Name       string    `json:"name"`
		Size       int64     `json:"size"`
		ModifiedAt time.Time `json:"modified_at"`
	} `json:"models"`
}

// Tags lists the daemon's locally installed models.
func (c *Client) Tags(ctx context.Context) ([]types.ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errUnreachable(c.host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errDaemonStatus("tags", resp.StatusCode, readErrBody(resp.Body))
	}
	var tr tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, err
	}
	models := make([]types.ModelInfo, len(tr.Models))
	for i, m := range tr.Models {
		models[i] = types.ModelInfo{Name: m.Name, Size: m.Size, ModifiedAt: m.ModifiedAt}
	}
	return models, nil
}

// PullProgress reports download progress for one pull status line.
type PullProgress struct {
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
}

// Pull downloads a model artifact from the remote registry into the daemon.
// The daemon streams NDJSON status lines; each is forwarded to onProgress
// when non-nil. Pull has no client-side timeout beyond ctx: artifact
// downloads routinely outlast the regular request budget.
func (c *Client) Pull(ctx context.Context, source string, onProgress func(PullProgress)) error {
	payload, _ := json.Marshal(map[string]any{"name": source, "stream": true})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/pull", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return errDownload(source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errDownload(source, fmt.Errorf("pull returned %s: %s", resp.Status, readErrBody(resp.Body)))
	}

	s := bufio.NewScanner(resp.Body)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		line := s.Bytes()
		if len(line) == 0 {
			continue
		}
		var p PullProgress
		if err := json.Unmarshal(line, &p); err != nil {
			continue
		}
		if strings.HasPrefix(strings.ToLower(p.Status), "error") {
			return errDownload(source, fmt.Errorf("%s", p.Status))
		}
		if onProgress != nil {
			onProgress(p)
		}
	}
	if err := s.Err(); err != nil {
		return errDownload(source, err)
	}
	return nil
}

// Create registers a model under name from a build manifest (Modelfile).
func (c *Client) Create(ctx context.Context, name, manifest string) error {
	payload, _ := json.Marshal(map[string]any{"name": name, "modelfile": manifest, "stream": false})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/create", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return errRegistration(name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errRegistration(name, fmt.Errorf("create returned %s: %s", resp.Status, readErrBody(resp.Body)))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Model         string `json:"model"`
	Response      string `json:"response"`
	Done          bool   `json:"done"`
	TotalDuration int64  `json:"total_duration"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model         string      `json:"model"`
	Message       chatMessage `json:"message"`
	Done          bool        `json:"done"`
	TotalDuration int64       `json:"total_duration"`
}

// Generate runs a non-streaming completion. When /api/generate fails on an
// answering daemon it retries once through /api/chat, which some daemon
// builds serve more reliably.
func (c *Client) Generate(ctx context.Context, req types.CompleteRequest) (types.CompleteResponse, error) {
	opts := map[string]any{}
	if req.Temperature > 0 {
		opts["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		opts["num_predict"] = req.MaxTokens
	}

	out, err := c.generate(ctx, generateRequest{Model: req.Model, Prompt: req.Prompt, Options: opts})
	if err == nil {
		return out, nil
	}
	if IsUnreachable(err) || IsModelNotFound(err) {
		return types.CompleteResponse{}, err
	}
	c.log.Warn().Err(err).Msg("generate failed, retrying via chat endpoint")
	return c.chat(ctx, chatRequest{
		Model:    req.Model,
		Messages: []chatMessage{{Role: "user", Content: req.Prompt}},
		Options:  opts,
	})
}

func (c *Client) generate(ctx context.Context, greq generateRequest) (types.CompleteResponse, error) {
	payload, _ := json.Marshal(greq)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return types.CompleteResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return types.CompleteResponse{}, errUnreachable(c.host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return types.CompleteResponse{}, errModelNotFound(greq.Model)
	}
	if resp.StatusCode != http.StatusOK {
		return types.CompleteResponse{}, errDaemonStatus("generate", resp.StatusCode, readErrBody(resp.Body))
	}
	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return types.CompleteResponse{}, err
	}
	return types.CompleteResponse{
		Model:           gr.Model,
		Response:        gr.Response,
		Done:            gr.Done,
		TotalDurationMS: gr.TotalDuration / int64(time.Millisecond),
	}, nil
}

func (c *Client) chat(ctx context.Context, creq chatRequest) (types.CompleteResponse, error) {
	creq.Stream = false
	payload, _ := json.Marshal(creq)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return types.CompleteResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return types.CompleteResponse{}, errUnreachable(c.host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return types.CompleteResponse{}, errModelNotFound(creq.Model)
	}
	if resp.StatusCode != http.StatusOK {
		return types.CompleteResponse{}, errDaemonStatus("chat", resp.StatusCode, readErrBody(resp.Body))
	}
	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return types.CompleteResponse{}, err
	}
	return types.CompleteResponse{
		Model:           cr.Model,
		Response:        cr.Message.Content,
		Done:            cr.Done,
		TotalDurationMS: cr.TotalDuration / int64(time.Millisecond),
	}, nil
}

func readErrBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
