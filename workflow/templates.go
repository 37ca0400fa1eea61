/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workflow

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"chainguard.dev/prproposer/changeset"
	"chainguard.dev/prproposer/gateway"
)

// PRData is the data passed to the pull request title and body templates.
type PRData struct {
	Issue   gateway.IssueRef
	Backend string
	Branch  string
	Changes changeset.ChangeSet
}

// Summary renders the change list as markdown bullets.
func (d PRData) Summary() string {
	return d.Changes.Summary()
}

var (
	// DefaultTitleTemplate renders "Fix #<n>: <title>".
	DefaultTitleTemplate = template.Must(template.New("title").Parse(
		`Fix #{{.Issue.Number}}: {{.Issue.Title}}`))

	// DefaultBodyTemplate names the backend and closes the issue.
	DefaultBodyTemplate = template.Must(template.New("body").Parse(
		`Generated automatically by ` + "`{{.Backend}}`" + ` to resolve #{{.Issue.Number}}.

Closes #{{.Issue.Number}}

### Changes

{{.Summary}}
{{- with .Issue.Body}}

### Issue description

{{.}}
{{- end}}
`))
)

func render(t *template.Template, data PRData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing %s template: %w", t.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
