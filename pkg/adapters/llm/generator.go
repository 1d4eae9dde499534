// Package llm adapts langchaingo chat models to the ports.TextGenerator
// interface consumed by the drafting and policy-evaluation steps.
package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// Generator wraps a langchaingo model as a ports.TextGenerator.
type Generator struct {
	model     llms.Model
	maxTokens int
}

// Option configures the Generator.
type Option func(*Generator)

// WithMaxTokens caps the completion length per call.
func WithMaxTokens(n int) Option {
	return func(g *Generator) {
		g.maxTokens = n
	}
}

// NewFromModel wraps an already constructed langchaingo model.
func NewFromModel(model llms.Model, opts ...Option) *Generator {
	g := &Generator{model: model}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewOpenAI builds a Generator backed by an OpenAI-compatible endpoint.
// A missing API key is a configuration error and is surfaced here, at
// construction time, not per turn.
func NewOpenAI(apiKey, model, baseURL string, opts ...Option) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("text generator: api key is required")
	}

	clientOpts := []openai.Option{
		openai.WithToken(apiKey),
	}
	if model != "" {
		clientOpts = append(clientOpts, openai.WithModel(model))
	}
	if baseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("text generator: %w", err)
	}
	return NewFromModel(client, opts...), nil
}

// Generate produces text for the given system and user context.
func (g *Generator) Generate(ctx context.Context, systemContext, userContext string) (string, error) {
	var callOpts []llms.CallOption
	if g.maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(g.maxTokens))
	}

	resp, err := g.model.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(schema.ChatMessageTypeSystem, systemContext),
			llms.TextParts(schema.ChatMessageTypeHuman, userContext),
		},
		callOpts...,
	)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generate: empty response")
	}
	return resp.Choices[0].Content, nil
}
