/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generation_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"chainguard.dev/prproposer/generation"
)

func lookup(string) (string, bool) { return "test-key", true }

func serve(t *testing.T, suffix string, status int, response any, seen *map[string]any) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, suffix) {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/"
}

func descriptor(name string, p generation.Provider, baseURL string) generation.Descriptor {
	return generation.Descriptor{
		Name:        name,
		Provider:    p,
		Model:       "test-model",
		BaseURL:     baseURL,
		APIKeyEnv:   "TEST_API_KEY",
		Temperature: 0.2,
		MaxTokens:   8000,
		Timeout:     5 * time.Second,
	}
}

func TestOpenAIBackend(t *testing.T) {
	var seen map[string]any
	url := serve(t, "/chat/completions", http.StatusOK, map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 0,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": "```json\n[]\n```"},
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12},
	}, &seen)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	b, err := generation.NewBackend(context.Background(), descriptor("grok", generation.ProviderOpenAI, url),
		generation.WithLookupEnv(lookup), generation.WithBackendMetrics(generation.NewMetrics(provider)))
	require.NoError(t, err)
	require.Equal(t, "grok", b.Name())

	text, err := b.Complete(context.Background(), "the prompt")
	require.NoError(t, err)
	require.Equal(t, "```json\n[]\n```", text)

	require.Equal(t, "test-model", seen["model"])
	require.InDelta(t, 0.2, seen["temperature"], 1e-9)
	require.InDelta(t, 8000, seen["max_tokens"], 1e-9)
	messages, ok := seen["messages"].([]any)
	require.True(t, ok, "messages = %v", seen["messages"])
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]any)
	require.Equal(t, "user", msg["role"])
	require.Equal(t, "the prompt", msg["content"])

	require.Equal(t, map[string]int64{"grok/test-model": 10},
		sums(t, reader, "genai.token.prompt", "backend", "model"))
}

func TestOpenAIBackendHTTPError(t *testing.T) {
	url := serve(t, "/chat/completions", http.StatusServiceUnavailable,
		map[string]any{"error": map[string]any{"message": "overloaded"}}, nil)

	b, err := generation.NewBackend(context.Background(), descriptor("grok", generation.ProviderOpenAI, url),
		generation.WithLookupEnv(lookup))
	require.NoError(t, err)

	_, err = b.Complete(context.Background(), "p")
	require.Error(t, err)
}

func TestAnthropicBackend(t *testing.T) {
	var seen map[string]any
	url := serve(t, "/v1/messages", http.StatusOK, map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       "test-model",
		"stop_reason": "end_turn",
		"content":     []map[string]any{{"type": "text", "text": `[{"file":"a","action":"delete"}]`}},
		"usage":       map[string]any{"input_tokens": 5, "output_tokens": 3},
	}, &seen)

	b, err := generation.NewBackend(context.Background(), descriptor("claude", generation.ProviderAnthropic, url),
		generation.WithLookupEnv(lookup))
	require.NoError(t, err)

	text, err := b.Complete(context.Background(), "the prompt")
	require.NoError(t, err)
	require.Equal(t, `[{"file":"a","action":"delete"}]`, text)
	require.Equal(t, "test-model", seen["model"])
	require.InDelta(t, 8000, seen["max_tokens"], 1e-9)
}

func TestGeminiBackend(t *testing.T) {
	url := serve(t, ":generateContent", http.StatusOK, map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": "[]"}},
			},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]any{"promptTokenCount": 3, "candidatesTokenCount": 1},
	}, nil)

	b, err := generation.NewBackend(context.Background(), descriptor("gemini", generation.ProviderGemini, url),
		generation.WithLookupEnv(lookup))
	require.NoError(t, err)

	text, err := b.Complete(context.Background(), "the prompt")
	require.NoError(t, err)
	require.Equal(t, "[]", text)
}

func TestNewBackendErrors(t *testing.T) {
	ctx := context.Background()
	missing := func(string) (string, bool) { return "", false }

	_, err := generation.NewBackend(ctx, descriptor("a", generation.ProviderOpenAI, ""), generation.WithLookupEnv(missing))
	require.ErrorContains(t, err, "TEST_API_KEY")

	_, err = generation.NewBackend(ctx, descriptor("a", generation.Provider("cohere"), ""), generation.WithLookupEnv(lookup))
	require.Error(t, err)

	_, err = generation.NewBackends(ctx, []generation.Descriptor{
		descriptor("a", generation.ProviderOpenAI, ""),
		descriptor("b", generation.ProviderOpenAI, ""),
	}, generation.WithLookupEnv(missing))
	require.Error(t, err)
}
