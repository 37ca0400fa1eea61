/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package generation turns an issue and a repository listing into a change set
// by asking an ordered chain of generative backends.
//
// Backends are tried strictly in order. A backend that fails, returns an empty
// body, or returns text that is not a change-set array is skipped and the next
// one is asked; the same backend is never asked twice. The first parseable
// array wins, including an empty one.
//
// Three providers are supported:
//
//   - openai: any OpenAI-compatible chat completions endpoint (OpenAI,
//     OpenRouter, xAI, Groq) through github.com/openai/openai-go
//   - anthropic: the Messages API through github.com/anthropics/anthropic-sdk-go
//   - gemini: the Gemini API through google.golang.org/genai
//
// The chain is described by a list of Descriptor values, loaded from YAML with
// LoadDescriptors or derived from the API keys in the environment with
// DefaultDescriptors.
package generation
