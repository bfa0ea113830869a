package ctl

import (
	"context"

	"lamactl/internal/ollama"
	"lamactl/pkg/types"
)

// completionService adapts the daemon client to the HTTP API, filling in
// the resolved model when a request does not name one.
type completionService struct {
	client       *ollama.Client
	defaultModel string
}

func newCompletionService(client *ollama.Client, defaultModel string) *completionService {
	return &completionService{client: client, defaultModel: defaultModel}
}

func (s *completionService) Complete(ctx context.Context, req types.CompleteRequest) (types.CompleteResponse, error) {
	if req.Model == "" {
		req.Model = s.defaultModel
	}
	return s.client.Generate(ctx, req)
}

func (s *completionService) Models(ctx context.Context) ([]types.ModelInfo, error) {
	return s.client.Tags(ctx)
}

func (s *completionService) Ready(ctx context.Context) bool {
	return s.client.Healthy(ctx)
}
