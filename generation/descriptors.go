/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generation

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// OpenRouterBaseURL is the OpenAI-compatible endpoint for OpenRouter.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

type descriptorFile struct {
	Backends []Descriptor `yaml:"backends"`
}

// UnmarshalYAML fills unset fields with the package defaults.
func (d *Descriptor) UnmarshalYAML(node *yaml.Node) error {
	type plain Descriptor
	p := plain{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultTimeout,
	}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = Descriptor(p)
	return nil
}

// ParseDescriptors reads a backend chain:
//
//	backends:
//	  - name: openrouter-claude
//	    provider: openai
//	    model: anthropic/claude-3-opus
//	    base_url: https://openrouter.ai/api/v1
//	    api_key_env: OPENROUTER_API_KEY
//	    timeout: 180s
func ParseDescriptors(r io.Reader) ([]Descriptor, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f descriptorFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("backend chain is empty")
		}
		return nil, fmt.Errorf("decoding backend chain: %w", err)
	}
	if len(f.Backends) == 0 {
		return nil, errors.New("backend chain is empty")
	}

	seen := make(map[string]bool, len(f.Backends))
	for _, d := range f.Backends {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("duplicate backend name %q", d.Name)
		}
		seen[d.Name] = true
	}
	return f.Backends, nil
}

// LoadDescriptors reads a backend chain from path.
func LoadDescriptors(path string) ([]Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening backend chain: %w", err)
	}
	defer f.Close()
	return ParseDescriptors(f)
}

func descriptor(name string, p Provider, model, baseURL, keyEnv string) Descriptor {
	return Descriptor{
		Name:        name,
		Provider:    p,
		Model:       model,
		BaseURL:     baseURL,
		APIKeyEnv:   keyEnv,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultTimeout,
	}
}

// DefaultDescriptors derives a chain from the API keys visible through lookup.
// OpenRouter models come first, then direct providers.
func DefaultDescriptors(lookup func(string) (string, bool)) []Descriptor {
	has := func(key string) bool {
		v, ok := lookup(key)
		return ok && v != ""
	}

	var ds []Descriptor
	if has("OPENROUTER_API_KEY") {
		for _, model := range []string{
			"anthropic/claude-3-opus",
			"openai/gpt-4o",
			"google/gemini-1.5-pro",
			"meta-llama/llama-3.1-405b-instruct",
			"mistral/mistral-large",
		} {
			ds = append(ds, descriptor("openrouter:"+model, ProviderOpenAI, model, OpenRouterBaseURL, "OPENROUTER_API_KEY"))
		}
	}
	if has("ANTHROPIC_API_KEY") {
		ds = append(ds, descriptor("anthropic", ProviderAnthropic, "claude-sonnet-4-5", "", "ANTHROPIC_API_KEY"))
	}
	if has("OPENAI_API_KEY") {
		ds = append(ds, descriptor("openai", ProviderOpenAI, "gpt-4o", "", "OPENAI_API_KEY"))
	}
	if has("GEMINI_API_KEY") {
		ds = append(ds, descriptor("gemini", ProviderGemini, "gemini-2.5-pro", "", "GEMINI_API_KEY"))
	}
	if has("XAI_API_KEY") {
		ds = append(ds, descriptor("xai", ProviderOpenAI, "grok-4", "https://api.x.ai/v1", "XAI_API_KEY"))
	}
	return ds
}
