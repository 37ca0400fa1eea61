/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package promptbuilder assembles LLM prompts from developer-owned templates.
//
// Templates carry {{name}} placeholders. Untrusted values are bound through an
// encoder (XML or JSON) so their markup is escaped, and substitution happens in
// a single pass so placeholder syntax inside a bound value is never expanded.
// Prompts are immutable: every Bind returns a new Prompt.
package promptbuilder

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"maps"
	"slices"
)

// stringLiteral only accepts untyped constants from callers outside the
// package, which keeps templates and literal bindings in the developer's hands.
type stringLiteral string

// render produces the text for one placeholder. A nil render is unbound.
type render func() (string, error)

// Prompt is a template together with the values bound to its placeholders.
type Prompt struct {
	template string
	bindings map[string]render
}

// NewPrompt parses template and records its placeholders as unbound.
func NewPrompt(template stringLiteral) (*Prompt, error) {
	bindings := make(map[string]render)
	if _, err := walkTemplate(string(template), func(name string) (string, error) {
		bindings[name] = nil
		return "", nil
	}); err != nil {
		return nil, err
	}
	return &Prompt{template: string(template), bindings: bindings}, nil
}

// Bindings lists the placeholder names of the template in sorted order.
func (p *Prompt) Bindings() []string {
	return slices.Sorted(maps.Keys(p.bindings))
}

// BindLiteral binds a developer-supplied string verbatim.
func (p *Prompt) BindLiteral(name string, value stringLiteral) (*Prompt, error) {
	return p.bind(name, func() (string, error) { return string(value), nil })
}

// BindXML binds data marshaled as indented XML.
func (p *Prompt) BindXML(name string, data any) (*Prompt, error) {
	return p.bind(name, func() (string, error) {
		b, err := xml.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling %s as XML: %w", name, err)
		}
		return string(b), nil
	})
}

// BindJSON binds data marshaled as indented JSON.
func (p *Prompt) BindJSON(name string, data any) (*Prompt, error) {
	return p.bind(name, func() (string, error) {
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling %s as JSON: %w", name, err)
		}
		return string(b), nil
	})
}

func (p *Prompt) bind(name string, r render) (*Prompt, error) {
	bound, ok := p.bindings[name]
	switch {
	case !ok:
		return nil, fmt.Errorf("binding %q not found in template", name)
	case bound != nil:
		return nil, fmt.Errorf("binding %q already bound", name)
	}
	next := &Prompt{template: p.template, bindings: maps.Clone(p.bindings)}
	next.bindings[name] = r
	return next, nil
}

// Build renders every binding once and substitutes it into the template.
// It fails if any placeholder is still unbound.
func (p *Prompt) Build() (string, error) {
	values := make(map[string]string, len(p.bindings))
	for _, name := range p.Bindings() {
		r := p.bindings[name]
		if r == nil {
			return "", fmt.Errorf("unbound placeholder: %s", name)
		}
		v, err := r()
		if err != nil {
			return "", err
		}
		values[name] = v
	}
	return walkTemplate(p.template, func(name string) (string, error) {
		return values[name], nil
	})
}

// Must panics if err is non-nil. It suits package-level prompts.
func Must(p *Prompt, err error) *Prompt {
	if err != nil {
		panic(err)
	}
	return p
}

// MustNewPrompt is Must(NewPrompt(template)).
func MustNewPrompt(template stringLiteral) *Prompt {
	return Must(NewPrompt(template))
}
