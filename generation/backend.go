/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Backend is a single generative endpoint.
type Backend interface {
	// Name identifies the backend in logs, metrics and results.
	Name() string

	// Complete sends prompt as a single user message and returns the raw text
	// of the first choice.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Provider selects the client library used for a backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

const (
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 8000
	DefaultTimeout     = 180 * time.Second
)

// Descriptor configures one backend in the chain.
type Descriptor struct {
	Name        string        `yaml:"name"`
	Provider    Provider      `yaml:"provider"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url,omitempty"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int64         `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Validate reports whether d can be turned into a backend.
func (d Descriptor) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	switch d.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", d.Provider))
	}
	if d.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if d.APIKeyEnv == "" {
		errs = append(errs, errors.New("api_key_env is required"))
	}
	if d.Temperature < 0 || d.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature %v out of range [0, 2]", d.Temperature))
	}
	if d.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", d.MaxTokens))
	}
	if d.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", d.Timeout))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("backend %q: %w", d.Name, err)
	}
	return nil
}

type backendOptions struct {
	httpClient *http.Client
	metrics    *Metrics
	lookupEnv  func(string) (string, bool)
}

// BackendOption configures NewBackend.
type BackendOption func(*backendOptions)

// WithHTTPClient sets the HTTP client used by the provider SDK.
func WithHTTPClient(c *http.Client) BackendOption {
	return func(o *backendOptions) { o.httpClient = c }
}

// WithBackendMetrics records token usage on m.
func WithBackendMetrics(m *Metrics) BackendOption {
	return func(o *backendOptions) { o.metrics = m }
}

// WithLookupEnv replaces os.LookupEnv for reading API keys.
func WithLookupEnv(f func(string) (string, bool)) BackendOption {
	return func(o *backendOptions) { o.lookupEnv = f }
}

// NewBackend builds the provider client described by d.
func NewBackend(ctx context.Context, d Descriptor, opts ...BackendOption) (Backend, error) {
	o := backendOptions{
		httpClient: http.DefaultClient,
		lookupEnv:  os.LookupEnv,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	key, ok := o.lookupEnv(d.APIKeyEnv)
	if !ok || key == "" {
		return nil, fmt.Errorf("backend %q: %s is not set", d.Name, d.APIKeyEnv)
	}

	switch d.Provider {
	case ProviderOpenAI:
		return newOpenAIBackend(d, key, o), nil
	case ProviderAnthropic:
		return newAnthropicBackend(d, key, o), nil
	case ProviderGemini:
		return newGeminiBackend(ctx, d, key, o)
	}
	return nil, fmt.Errorf("backend %q: unknown provider %q", d.Name, d.Provider)
}

// NewBackends builds every backend in ds, in order.
func NewBackends(ctx context.Context, ds []Descriptor, opts ...BackendOption) ([]Backend, error) {
	backends := make([]Backend, 0, len(ds))
	for _, d := range ds {
		b, err := NewBackend(ctx, d, opts...)
		if err != nil {
			return nil, err
		}
		backends = append(backends, b)
	}
	return backends, nil
}
