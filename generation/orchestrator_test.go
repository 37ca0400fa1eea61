/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generation_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"chainguard.dev/prproposer/changeset"
	"chainguard.dev/prproposer/gateway"
	"chainguard.dev/prproposer/generation"
)

type fakeBackend struct {
	name  string
	text  string
	err   error
	calls *[]string
	seen  string
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Complete(_ context.Context, prompt string) (string, error) {
	*f.calls = append(*f.calls, f.name)
	f.seen = prompt
	return f.text, f.err
}

func chain(calls *[]string, fakes ...fakeBackend) []generation.Backend {
	out := make([]generation.Backend, 0, len(fakes))
	for i := range fakes {
		b := fakes[i]
		b.calls = calls
		out = append(out, &b)
	}
	return out
}

func TestSelect(t *testing.T) {
	helloSet := changeset.ChangeSet{{File: "hello.txt", Action: changeset.ActionCreate, Content: "hi"}}
	const hello = `[{"file":"hello.txt","action":"create","content":"hi"}]`

	tests := []struct {
		name        string
		backends    []fakeBackend
		wantSet     changeset.ChangeSet
		wantBackend string
		wantCalls   []string
	}{{
		name:        "first backend wins",
		backends:    []fakeBackend{{name: "a", text: hello}, {name: "b", text: hello}},
		wantSet:     helloSet,
		wantBackend: "a",
		wantCalls:   []string{"a"},
	}, {
		name: "advances past call error, empty body and fenced garbage",
		backends: []fakeBackend{
			{name: "a", err: errors.New("503 service unavailable")},
			{name: "b", text: "   \n"},
			{name: "c", text: "```json\nnot json\n```"},
			{name: "d", text: "```json\n" + hello + "\n```"},
		},
		wantSet:     helloSet,
		wantBackend: "d",
		wantCalls:   []string{"a", "b", "c", "d"},
	}, {
		name:        "empty sequence is accepted",
		backends:    []fakeBackend{{name: "a", text: "[]"}, {name: "b", text: hello}},
		wantSet:     changeset.ChangeSet{},
		wantBackend: "a",
		wantCalls:   []string{"a"},
	}, {
		name:        "not json advances",
		backends:    []fakeBackend{{name: "a", text: "I think you should add a file."}, {name: "b", text: hello}},
		wantSet:     helloSet,
		wantBackend: "b",
		wantCalls:   []string{"a", "b"},
	}, {
		name:        "object instead of sequence advances",
		backends:    []fakeBackend{{name: "a", text: `{"file":"x","action":"create"}`}, {name: "b", text: hello}},
		wantSet:     helloSet,
		wantBackend: "b",
		wantCalls:   []string{"a", "b"},
	}, {
		name:        "unknown fields advance",
		backends:    []fakeBackend{{name: "a", text: `[{"file":"x","action":"create","mode":"0644"}]`}, {name: "b", text: hello}},
		wantSet:     helloSet,
		wantBackend: "b",
		wantCalls:   []string{"a", "b"},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			cs, backend, err := generation.Select(context.Background(), chain(&calls, tt.backends...), "prompt")
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if backend != tt.wantBackend {
				t.Errorf("Select() backend = %q, want %q", backend, tt.wantBackend)
			}
			if diff := cmp.Diff(tt.wantSet, cs); diff != "" {
				t.Errorf("Select() change set mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantCalls, calls); diff != "" {
				t.Errorf("call order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelectExhausted(t *testing.T) {
	var calls []string
	backends := chain(&calls,
		fakeBackend{name: "a", err: errors.New("connection refused")},
		fakeBackend{name: "b", text: ""},
		fakeBackend{name: "c", text: "nope"},
	)

	_, _, err := generation.Select(context.Background(), backends, "prompt")
	if !errors.Is(err, generation.ErrAllBackendsExhausted) {
		t.Fatalf("Select() error = %v, want ErrAllBackendsExhausted", err)
	}
	var exhausted *generation.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Select() error = %T, want *ExhaustedError", err)
	}

	var outcomes []string
	for _, a := range exhausted.Attempts {
		outcomes = append(outcomes, a.Backend+"="+a.Outcome)
	}
	want := []string{"a=call_error", "b=empty", "c=parse_error"}
	if diff := cmp.Diff(want, outcomes); diff != "" {
		t.Errorf("attempts mismatch (-want +got):\n%s", diff)
	}
	for _, name := range []string{"a", "b", "c", "connection refused"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %q", err.Error(), name)
		}
	}
}

func TestSelectNoBackends(t *testing.T) {
	_, _, err := generation.Select(context.Background(), nil, "prompt")
	if !errors.Is(err, generation.ErrAllBackendsExhausted) {
		t.Errorf("Select(nil) error = %v, want ErrAllBackendsExhausted", err)
	}
}

func TestSelectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls []string
	_, _, err := generation.Select(ctx, chain(&calls, fakeBackend{name: "a", text: "[]"}), "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Select() error = %v, want context.Canceled", err)
	}
	if len(calls) != 0 {
		t.Errorf("backends called after cancellation: %v", calls)
	}
}

func TestNew(t *testing.T) {
	if _, err := generation.New(nil); err == nil {
		t.Error("New(nil) = nil error, want error")
	}
}

func TestGenerate(t *testing.T) {
	var calls []string
	backends := chain(&calls, fakeBackend{name: "grok", text: `[{"file":"hello.txt","action":"create","content":"hi"}]`})
	o, err := generation.New(backends, generation.WithMetrics(generation.NewMetrics(nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if diff := cmp.Diff([]string{"grok"}, o.Backends()); diff != "" {
		t.Errorf("Backends() mismatch (-want +got):\n%s", diff)
	}

	issue := gateway.IssueRef{Number: 42, Title: "Add hello"}
	files := []gateway.FileEntry{{Path: "README.md", Kind: gateway.KindBlob}}
	cs, backend, err := o.Generate(context.Background(), issue, files)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if backend != "grok" || len(cs) != 1 {
		t.Errorf("Generate() = %v from %q", cs, backend)
	}

	want, err := generation.BuildPrompt(issue, files)
	if err != nil {
		t.Fatalf("BuildPrompt() error = %v", err)
	}
	if got := backends[0].(*fakeBackend).seen; got != want {
		t.Errorf("backend saw prompt:\n%s\nwant:\n%s", got, want)
	}
}
