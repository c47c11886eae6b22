package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/agdesk/agdesk/internal/model"
	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicAPIVersion     = "2023-06-01"
)

type anthropicConfig struct {
	APIKey    string `json:"api_key"`
	BaseURL   string `json:"base_url"`
	MaxTokens int    `json:"max_tokens"`
}

type anthropicProvider struct {
	apiKey    string
	baseURL   string
	maxTokens int
	client    *http.Client
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *anthropicProvider) Name() string {
	return "anthropic"
}

func (p *anthropicProvider) Complete(ctx context.Context, completionModel string, system string, turns []model.ChatMessage) ([]ContentBlock, error) {
	if p.apiKey == "" {
		return nil, ErrUnavailable
	}
	msgs := make([]anthropicMessage, 0, len(turns))
	for _, turn := range turns {
		msgs = append(msgs, anthropicMessage{Role: turn.Role, Content: turn.Content})
	}
	reqBody := anthropicRequest{
		Model:     completionModel,
		MaxTokens: p.maxTokens,
		System:    system,
		Messages:  msgs,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("Content-Type", "application/json")
	client := p.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, appErr.NewStatusError(resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Content) == 0 {
		return nil, fmt.Errorf("completion response has no content")
	}
	blocks := make([]ContentBlock, 0, len(out.Content))
	for _, block := range out.Content {
		blocks = append(blocks, ContentBlock{Type: block.Type, Text: block.Text})
	}
	return blocks, nil
}

func createAnthropicFactory(args interface{}) (ICompletionProvider, error) {
	cfg := &anthropicConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &anthropicProvider{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		baseURL:   baseURL,
		maxTokens: maxTokens,
	}, nil
}

func init() {
	RegisterCompletion("anthropic", createAnthropicFactory)
}
