/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v84/github"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/oauth2"

	"chainguard.dev/prproposer/gateway"
	"chainguard.dev/prproposer/generation"
	"chainguard.dev/prproposer/retry"
)

type config struct {
	// GitHub credentials: a token, or a GitHub App installation.
	GitHubToken          string `env:"GITHUB_TOKEN"`
	GitHubAppID          int64  `env:"GITHUB_APP_ID"`
	GitHubInstallationID int64  `env:"GITHUB_INSTALLATION_ID"`
	GitHubPrivateKeyPath string `env:"GITHUB_PRIVATE_KEY_PATH"`
	GitHubAPIURL         string `env:"GITHUB_API_URL"`

	// BackendsFile is a YAML backend chain. When empty the chain is derived
	// from the provider API keys in the environment.
	BackendsFile   string        `env:"BACKENDS_FILE"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT"`

	GatewayWorkers    int           `env:"GATEWAY_WORKERS,default=4"`
	RateLimitMargin   time.Duration `env:"RATE_LIMIT_MARGIN,default=2s"`
	RateLimitMaxWaits int           `env:"RATE_LIMIT_MAX_WAITS,default=0"`

	BranchPrefix string `env:"BRANCH_PREFIX,default=agent-fix-issue-"`

	// OTLPEndpoint receives spans over OTLP/HTTP. Spans are dropped when empty.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
}

func loadConfig(ctx context.Context, l envconfig.Lookuper) (config, error) {
	var cfg config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return config{}, fmt.Errorf("processing environment: %w", err)
	}
	return cfg, nil
}

func (c config) retry() retry.Config {
	return retry.Config{MaxWaits: c.RateLimitMaxWaits, SafetyMargin: c.RateLimitMargin}
}

func (c config) usesApp() bool {
	return c.GitHubAppID != 0 || c.GitHubInstallationID != 0 || c.GitHubPrivateKeyPath != ""
}

func (c config) validateGitHub() error {
	if c.usesApp() {
		var errs []error
		if c.GitHubAppID == 0 {
			errs = append(errs, errors.New("GITHUB_APP_ID is required for app authentication"))
		}
		if c.GitHubInstallationID == 0 {
			errs = append(errs, errors.New("GITHUB_INSTALLATION_ID is required for app authentication"))
		}
		if c.GitHubPrivateKeyPath == "" {
			errs = append(errs, errors.New("GITHUB_PRIVATE_KEY_PATH is required for app authentication"))
		}
		return errors.Join(errs...)
	}
	if c.GitHubToken == "" {
		return errors.New("GITHUB_TOKEN or GITHUB_APP_ID is required")
	}
	return nil
}

// newGitHubClient returns a client authenticated as the configured token or app installation.
func newGitHubClient(ctx context.Context, cfg config) (*github.Client, error) {
	if err := cfg.validateGitHub(); err != nil {
		return nil, err
	}

	var client *github.Client
	if cfg.usesApp() {
		tr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, cfg.GitHubAppID, cfg.GitHubInstallationID, cfg.GitHubPrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("creating app installation transport: %w", err)
		}
		if cfg.GitHubAPIURL != "" {
			tr.BaseURL = strings.TrimSuffix(cfg.GitHubAPIURL, "/")
		}
		client = github.NewClient(&http.Client{Transport: tr})
	} else {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken})
		client = github.NewClient(oauth2.NewClient(ctx, ts))
	}

	if cfg.GitHubAPIURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.GitHubAPIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing GITHUB_API_URL: %w", err)
		}
		client.BaseURL = u
		client.UploadURL = u
	}
	return client, nil
}

func newGateway(ctx context.Context, cfg config) (*gateway.Gateway, error) {
	client, err := newGitHubClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return gateway.New(client, gateway.WithWorkers(cfg.GatewayWorkers), gateway.WithRetryConfig(cfg.retry()))
}

// descriptors loads the backend chain and applies the timeout override.
func descriptors(cfg config, lookup func(string) (string, bool)) ([]generation.Descriptor, error) {
	var ds []generation.Descriptor
	if cfg.BackendsFile != "" {
		var err error
		if ds, err = generation.LoadDescriptors(cfg.BackendsFile); err != nil {
			return nil, err
		}
	} else {
		ds = generation.DefaultDescriptors(lookup)
	}
	if len(ds) == 0 {
		return nil, errors.New("no backends configured: set BACKENDS_FILE or a provider API key")
	}
	if cfg.BackendTimeout > 0 {
		for i := range ds {
			ds[i].Timeout = cfg.BackendTimeout
		}
	}
	return ds, nil
}
