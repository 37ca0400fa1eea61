/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type geminiBackend struct {
	desc    Descriptor
	client  *genai.Client
	metrics *Metrics
}

func newGeminiBackend(ctx context.Context, d Descriptor, key string, o backendOptions) (*geminiBackend, error) {
	cfg := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
	}
	if d.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: d.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("backend %q: creating genai client: %w", d.Name, err)
	}
	return &geminiBackend{desc: d, client: client, metrics: o.metrics}, nil
}

func (b *geminiBackend) Name() string { return b.desc.Name }

func (b *geminiBackend) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.desc.Timeout)
	defer cancel()

	resp, err := b.client.Models.GenerateContent(ctx, b.desc.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     ptr(float32(b.desc.Temperature)),
		MaxOutputTokens: int32(b.desc.MaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("generate content with %s: %w", b.desc.Model, err)
	}
	if resp == nil {
		return "", errors.New("no response")
	}
	if resp.UsageMetadata != nil {
		b.metrics.RecordTokens(ctx, b.desc.Name, b.desc.Model,
			int64(resp.UsageMetadata.PromptTokenCount), int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		text.WriteString(part.Text)
	}
	return text.String(), nil
}

func ptr[T any](v T) *T {
	return &v
}
