package types

// CompleteRequest is the payload accepted by POST /api/complete.
type CompleteRequest struct {
	// Optional model alias. If empty, the server's active model is used.
	// example: llama3
	Model string `json:"model,omitempty" example:"llama3"`
	// Required prompt text to generate a completion for.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// Sampling temperature (higher = more random).
	// example: 0.7
	Temperature float64 `json:"temperature,omitempty" example:"0.7"`
	// Maximum number of new tokens to generate.
	// example: 256
	MaxTokens int `json:"max_tokens,omitempty" example:"256"`
}

// CompleteResponse is returned by POST /api/complete.
type CompleteResponse struct {
	// Model that produced the completion.
	// example: llama3
	Model string `json:"model" example:"llama3"`
	// Generated text.
	Response string `json:"response"`
	// True when generation ran to completion rather than being cut off.
	// example: true
	Done bool `json:"done" example:"true"`
	// Wall-clock generation time in milliseconds.
	// example: 1834
	TotalDurationMS int64 `json:"total_duration_ms" example:"1834"`
}

// ModelsResponse wraps the list of models returned by GET /api/models.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// EchoResponse is returned by the connectivity-test endpoint.
type EchoResponse struct {
	// Echoed message.
	// example: ping
	Message string `json:"message" example:"ping"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: prompt is required
	Error string `json:"error" example:"prompt is required"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
