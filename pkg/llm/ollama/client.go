// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/teradata-labs/quill/pkg/types"
)

const (
	// DefaultEndpoint is the default local Ollama server.
	DefaultEndpoint = "http://localhost:11434"
	// DefaultModel is a reasonable local default.
	DefaultModel = "llama3.1"
	// DefaultTimeout is generous because local generation is slow.
	DefaultTimeout = 120 * time.Second
)

// Client implements the Provider interface for Ollama.
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

// Config holds configuration for the Ollama client.
type Config struct {
	Endpoint string        // Default: http://localhost:11434
	Model    string        // e.g. llama3.1, mistral, qwen2.5-coder
	Timeout  time.Duration // Default: 120s
}

// NewClient creates a new Ollama client.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "ollama"
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a single-turn prompt through Ollama's chat endpoint.
func (c *Client) Complete(ctx context.Context, req types.CompletionRequest) (string, error) {
	apiReq := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: req.Prompt},
		},
		Stream: false,
		Options: map[string]interface{}{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	resp, err := c.callAPI(ctx, apiReq)
	if err != nil {
		return "", fmt.Errorf("ollama API call failed: %w", err)
	}
	return resp.Message.Content, nil
}

// callAPI makes the HTTP request to Ollama's /api/chat endpoint.
func (c *Client) callAPI(ctx context.Context, req chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.endpoint + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &resp, nil
}

type chatRequest struct {
	Model    string                 `json:"model"`
	Messages []chatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model     string      `json:"model"`
	Message   chatMessage `json:"message"`
	Done      bool        `json:"done"`
	EvalCount int         `json:"eval_count"`
}

// Ensure Client implements the Provider interface.
var _ types.Provider = (*Client)(nil)
