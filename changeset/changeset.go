/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changeset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Action is the kind of file-level edit a Change performs.
type Action string

const (
	ActionCreate Action = "create"
	ActionModify Action = "modify"
	ActionDelete Action = "delete"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionModify, ActionDelete:
		return true
	}
	return false
}

// Change is a single file-level edit.
type Change struct {
	File    string `json:"file" jsonschema:"required,description=Repository-relative path of the file"`
	Action  Action `json:"action" jsonschema:"required,enum=create,enum=modify,enum=delete"`
	Content string `json:"content,omitempty" jsonschema:"description=Full new file content (omit for delete)"`
}

// wireChange mirrors Change with pointers so missing keys can be told apart from empty values.
type wireChange struct {
	File    *string `json:"file"`
	Action  *string `json:"action"`
	Content *string `json:"content"`
}

// UnmarshalJSON decodes a change strictly: unknown keys and missing required
// keys are errors. create and modify must carry content; an empty string is
// an empty file. Other actions may omit it.
func (c *Change) UnmarshalJSON(data []byte) error {
	var w wireChange
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return err
	}
	switch {
	case w.File == nil && w.Action == nil:
		return errors.New(`change must be an object with "file" and "action"`)
	case w.File == nil:
		return errors.New(`change is missing "file"`)
	case w.Action == nil:
		return errors.New(`change is missing "action"`)
	}

	*c = Change{File: *w.File, Action: Action(*w.Action)}
	switch {
	case w.Content != nil:
		c.Content = *w.Content
	case c.Action == ActionCreate || c.Action == ActionModify:
		// "content": null decodes to nil as well.
		return fmt.Errorf("%s %q is missing \"content\"", c.Action, c.File)
	}
	return nil
}

// ChangeSet is an ordered list of changes.
type ChangeSet []Change

// Summary renders a short human-readable description, one line per change.
func (cs ChangeSet) Summary() string {
	if len(cs) == 0 {
		return "no changes"
	}
	var b strings.Builder
	for i, c := range cs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s `%s`", c.Action, c.File)
	}
	return b.String()
}

var (
	// ErrMalformed is returned when the payload is not valid change-set JSON.
	ErrMalformed = errors.New("malformed change-set")
	// ErrNotSequence is returned when the payload is valid JSON but not an array.
	ErrNotSequence = errors.New("change-set is not a sequence")
)

// Parse strips any surrounding code fence from text and strictly decodes the change-set.
func Parse(text string) (ChangeSet, error) {
	body := StripFences(text)
	if body == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	if !strings.HasPrefix(body, "[") {
		if json.Valid([]byte(body)) {
			return nil, ErrNotSequence
		}
		return nil, fmt.Errorf("%w: not JSON", ErrMalformed)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	var cs ChangeSet
	if err := dec.Decode(&cs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after array", ErrMalformed)
	}
	if cs == nil {
		cs = ChangeSet{}
	}
	return cs, nil
}
