/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generation_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"chainguard.dev/prproposer/generation"
)

const chainYAML = `
backends:
  - name: openrouter-claude
    provider: openai
    model: anthropic/claude-3-opus
    base_url: https://openrouter.ai/api/v1
    api_key_env: OPENROUTER_API_KEY
  - name: claude
    provider: anthropic
    model: claude-sonnet-4-5
    api_key_env: ANTHROPIC_API_KEY
    temperature: 0
    max_tokens: 4096
    timeout: 30s
`

func TestParseDescriptors(t *testing.T) {
	got, err := generation.ParseDescriptors(strings.NewReader(chainYAML))
	require.NoError(t, err)

	want := []generation.Descriptor{{
		Name:        "openrouter-claude",
		Provider:    generation.ProviderOpenAI,
		Model:       "anthropic/claude-3-opus",
		BaseURL:     "https://openrouter.ai/api/v1",
		APIKeyEnv:   "OPENROUTER_API_KEY",
		Temperature: generation.DefaultTemperature,
		MaxTokens:   generation.DefaultMaxTokens,
		Timeout:     generation.DefaultTimeout,
	}, {
		Name:        "claude",
		Provider:    generation.ProviderAnthropic,
		Model:       "claude-sonnet-4-5",
		APIKeyEnv:   "ANTHROPIC_API_KEY",
		Temperature: 0,
		MaxTokens:   4096,
		Timeout:     30 * time.Second,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseDescriptors() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDescriptorsRejects(t *testing.T) {
	tests := map[string]string{
		"empty document": "",
		"empty chain":    "backends: []\n",
		"unknown top-level field": `
models:
  - name: a
`,
		"unknown provider": `
backends:
  - name: a
    provider: cohere
    model: m
    api_key_env: K
`,
		"missing model": `
backends:
  - name: a
    provider: openai
    api_key_env: K
`,
		"duplicate names": `
backends:
  - {name: a, provider: openai, model: m, api_key_env: K}
  - {name: a, provider: gemini, model: m, api_key_env: K}
`,
		"temperature out of range": `
backends:
  - {name: a, provider: openai, model: m, api_key_env: K, temperature: 3}
`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := generation.ParseDescriptors(strings.NewReader(doc)); err == nil {
				t.Errorf("ParseDescriptors() = nil error, want error")
			}
		})
	}
}

func TestLoadDescriptors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backends.yaml")
	require.NoError(t, os.WriteFile(path, []byte(chainYAML), 0o600))

	got, err := generation.LoadDescriptors(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	_, err = generation.LoadDescriptors(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDefaultDescriptors(t *testing.T) {
	env := map[string]string{
		"OPENROUTER_API_KEY": "or",
		"GEMINI_API_KEY":     "g",
		"OPENAI_API_KEY":     "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	var names []string
	for _, d := range generation.DefaultDescriptors(lookup) {
		require.NoError(t, d.Validate())
		names = append(names, d.Name)
	}
	want := []string{
		"openrouter:anthropic/claude-3-opus",
		"openrouter:openai/gpt-4o",
		"openrouter:google/gemini-1.5-pro",
		"openrouter:meta-llama/llama-3.1-405b-instruct",
		"openrouter:mistral/mistral-large",
		"gemini",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("DefaultDescriptors() mismatch (-want +got):\n%s", diff)
	}

	if got := generation.DefaultDescriptors(func(string) (string, bool) { return "", false }); len(got) != 0 {
		t.Errorf("DefaultDescriptors(no keys) = %v, want none", got)
	}
}
