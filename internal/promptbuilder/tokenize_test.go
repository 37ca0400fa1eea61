/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewPrompt(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     []string
		wantErr  string
	}{
		{name: "no bindings", template: "plain text", want: nil},
		{name: "repeated binding", template: "{{a}} and {{ a }} then {{b_2}}", want: []string{"a", "b_2"}},
		{name: "unclosed", template: "oops {{a", wantErr: "unclosed binding"},
		{name: "empty", template: "{{}}", wantErr: "invalid binding identifier"},
		{name: "hyphen", template: "{{test-case}}", wantErr: "invalid binding identifier"},
		{name: "leading digit", template: "{{1st}}", wantErr: "invalid binding identifier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPrompt(stringLiteral(tt.template))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("NewPrompt(%q) error = %v, want %q", tt.template, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewPrompt() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, p.Bindings()); diff != "" {
				t.Errorf("Bindings() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	for s, want := range map[string]bool{
		"a": true, "issue": true, "b_2": true, "é": true,
		"": false, "_a": false, "2a": false, "a.b": false, "a b": false,
	} {
		if got := isIdentifier(s); got != want {
			t.Errorf("isIdentifier(%q) = %v, want %v", s, got, want)
		}
	}
}
