/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package generation

import (
	"encoding/xml"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"

	"chainguard.dev/prproposer/changeset"
	"chainguard.dev/prproposer/gateway"
	"chainguard.dev/prproposer/internal/promptbuilder"
)

// NoDescription replaces an empty issue body in the prompt.
const NoDescription = "(no description provided)"

// NoFiles replaces an empty repository listing in the prompt.
const NoFiles = "(empty)"

const promptTemplate = `You are an autonomous coding agent resolving a GitHub issue.

The issue, with its content escaped as XML:
{{issue}}

Files in the repository:
{{files}}

Respond with ONLY a JSON array of changes. Do not add explanations and do not
wrap the array in a code block. Each element must match this JSON schema:
{{schema}}

Use "create" for a new file, "modify" to replace an existing file with its full
new content, and "delete" to remove a file (omit content). Return [] if no
change is needed.
`

type promptIssue struct {
	XMLName xml.Name `xml:"issue"`
	Number  int      `xml:"number,attr"`
	Title   string   `xml:"title"`
	Body    string   `xml:"body"`
}

type promptFiles struct {
	XMLName xml.Name `xml:"files"`
	List    string   `xml:",chardata"`
}

var basePrompt = promptbuilder.MustNewPrompt(promptTemplate)

var changeSchema = sync.OnceValue(func() *jsonschema.Schema {
	r := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	return r.Reflect(&changeset.Change{})
})

// BuildPrompt renders the generation prompt for issue against files.
// Only blob paths are listed, comma-joined in the order given.
func BuildPrompt(issue gateway.IssueRef, files []gateway.FileEntry) (string, error) {
	body := issue.Body
	if strings.TrimSpace(body) == "" {
		body = NoDescription
	}

	var paths []string
	for _, f := range files {
		if f.Kind == gateway.KindBlob {
			paths = append(paths, f.Path)
		}
	}
	list := strings.Join(paths, ", ")
	if list == "" {
		list = NoFiles
	}

	p, err := basePrompt.BindXML("issue", promptIssue{Number: issue.Number, Title: issue.Title, Body: body})
	if err != nil {
		return "", err
	}
	if p, err = p.BindXML("files", promptFiles{List: list}); err != nil {
		return "", err
	}
	if p, err = p.BindJSON("schema", changeSchema()); err != nil {
		return "", err
	}
	return p.Build()
}
