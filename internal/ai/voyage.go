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

const defaultVoyageBaseURL = "https://api.voyageai.com/v1"

type voyageConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type voyageEmbedProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type voyageEmbedRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type voyageEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *voyageEmbedProvider) Name() string {
	return "voyage"
}

func (p *voyageEmbedProvider) Embed(ctx context.Context, embedModel string, text string) ([]float32, error) {
	if p.apiKey == "" {
		return nil, ErrUnavailable
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/embeddings"
	data, err := json.Marshal(voyageEmbedRequest{Input: text, Model: embedModel})
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
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, appErr.NewStatusError(resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out voyageEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("voyage response has no embeddings")
	}
	return out.Data[0].Embedding, nil
}

func createVoyageEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &voyageConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultVoyageBaseURL
	}
	return &voyageEmbedProvider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
	}, nil
}

func init() {
	RegisterEmbed("voyage", createVoyageEmbedFactory)
}
