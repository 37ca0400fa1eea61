/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicBackend struct {
	desc    Descriptor
	client  anthropic.Client
	metrics *Metrics
}

func newAnthropicBackend(d Descriptor, key string, o backendOptions) *anthropicBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithHTTPClient(o.httpClient),
		option.WithMaxRetries(0),
	}
	if d.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(d.BaseURL))
	}
	return &anthropicBackend{
		desc:    d,
		client:  anthropic.NewClient(opts...),
		metrics: o.metrics,
	}
}

func (b *anthropicBackend) Name() string { return b.desc.Name }

func (b *anthropicBackend) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.desc.Timeout)
	defer cancel()

	msg, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.desc.Model),
		MaxTokens: b.desc.MaxTokens,
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(prompt),
			},
		}},
		Temperature: anthropic.Float(b.desc.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("message with %s: %w", b.desc.Model, err)
	}
	b.metrics.RecordTokens(ctx, b.desc.Name, b.desc.Model, msg.Usage.InputTokens, msg.Usage.OutputTokens)

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}
