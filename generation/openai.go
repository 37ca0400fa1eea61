/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generation

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIBackend struct {
	desc    Descriptor
	client  openai.Client
	metrics *Metrics
}

func newOpenAIBackend(d Descriptor, key string, o backendOptions) *openAIBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithHTTPClient(o.httpClient),
		// The orchestrator moves on to the next backend instead.
		option.WithMaxRetries(0),
	}
	if d.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(d.BaseURL))
	}
	return &openAIBackend{
		desc:    d,
		client:  openai.NewClient(opts...),
		metrics: o.metrics,
	}
}

func (b *openAIBackend) Name() string { return b.desc.Name }

func (b *openAIBackend) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.desc.Timeout)
	defer cancel()

	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.desc.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(b.desc.Temperature),
		MaxTokens:   openai.Int(b.desc.MaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion with %s: %w", b.desc.Model, err)
	}
	b.metrics.RecordTokens(ctx, b.desc.Name, b.desc.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
