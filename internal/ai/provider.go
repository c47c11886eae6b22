package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/agdesk/agdesk/internal/model"
)

var ErrUnavailable = errors.New("ai provider not configured")

// ContentBlock is one unit of a completion response. Only "text" blocks are
// usable by the chat surface; anything else gets an apology substitute.
type ContentBlock struct {
	Type string
	Text string
}

type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, embedModel string, text string) ([]float32, error)
}

type ICompletionProvider interface {
	Name() string
	Complete(ctx context.Context, completionModel string, system string, turns []model.ChatMessage) ([]ContentBlock, error)
}

// IEmbedder is a provider bound to one model.
type IEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

type ICompleter interface {
	Complete(ctx context.Context, system string, turns []model.ChatMessage) ([]ContentBlock, error)
}

type embedder struct {
	provider IEmbedProvider
	model    string
}

func NewEmbedder(p IEmbedProvider, embedModel string) IEmbedder {
	return &embedder{provider: p, model: embedModel}
}

func (e *embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text)
}

func (e *embedder) ModelName() string {
	return e.model
}

type completer struct {
	provider ICompletionProvider
	model    string
}

func NewCompleter(p ICompletionProvider, completionModel string) ICompleter {
	return &completer{provider: p, model: completionModel}
}

func (c *completer) Complete(ctx context.Context, system string, turns []model.ChatMessage) ([]ContentBlock, error) {
	return c.provider.Complete(ctx, c.model, system, turns)
}

type EmbedFactory func(args interface{}) (IEmbedProvider, error)

type CompletionFactory func(args interface{}) (ICompletionProvider, error)

var (
	embedRegistry      = map[string]EmbedFactory{}
	completionRegistry = map[string]CompletionFactory{}
)

func RegisterEmbed(name string, factory EmbedFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	embedRegistry[key] = factory
}

func RegisterCompletion(name string, factory CompletionFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	completionRegistry[key] = factory
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("embed provider name is required")
	}
	factory := embedRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported embed provider: %s", name)
	}
	return factory(args)
}

func NewCompletionProvider(name string, args interface{}) (ICompletionProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("completion provider name is required")
	}
	factory := completionRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported completion provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
