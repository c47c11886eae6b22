package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
)

const defaultHuggingFaceBaseURL = "https://api-inference.huggingface.co/models"

type huggingFaceConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

// huggingFaceProvider calls the serverless inference API. The response shape
// varies: a flat float array, a nested [[...]] array, or an error object with
// a "loading" message while the model warms up.
type huggingFaceProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type huggingFaceEmbedRequest struct {
	Inputs string `json:"inputs"`
}

func (p *huggingFaceProvider) Name() string {
	return "huggingface"
}

func (p *huggingFaceProvider) Embed(ctx context.Context, embedModel string, text string) ([]float32, error) {
	if p.apiKey == "" {
		return nil, ErrUnavailable
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/" + embedModel
	data, err := json.Marshal(huggingFaceEmbedRequest{Inputs: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
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
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Model-loading errors come back as 503 with a JSON error body; the
		// caller's retry loop treats them like any other transient failure.
		return nil, appErr.NewStatusError(resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return parseHuggingFaceEmbedding(body)
}

func parseHuggingFaceEmbedding(body []byte) ([]float32, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("malformed embedding response: %w", err)
	}

	var errBody struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &errBody); err == nil && errBody.Error != "" {
		return nil, fmt.Errorf("inference error: %s", errBody.Error)
	}

	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	var nested [][]float32
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}
	return nil, fmt.Errorf("embedding response is not a numeric array")
}

func createHuggingFaceEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &huggingFaceConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultHuggingFaceBaseURL
	}
	return &huggingFaceProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
	}, nil
}

func init() {
	RegisterEmbed("huggingface", createHuggingFaceEmbedFactory)
}
