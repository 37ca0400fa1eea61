/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changeset

import (
	"strings"
)

const fence = "```"

// StripFences extracts the body of the first fenced code block in text.
// Any info string (```json, ```JSON, ```javascript) is accepted. If text has no
// fence it is returned trimmed; a lone leading or trailing fence is dropped.
func StripFences(text string) string {
	lines := strings.Split(text, "\n")
	var body []string
	inBlock, found := false, false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !inBlock && strings.HasPrefix(trimmed, fence) {
			// A fence that also closes on the same line, e.g. ```[...]```
			if rest := strings.TrimPrefix(trimmed, fence); strings.HasSuffix(rest, fence) && len(rest) >= len(fence) {
				return strings.TrimSpace(strings.TrimSuffix(rest, fence))
			}
			inBlock, found = true, true
			continue
		}
		if inBlock && trimmed == fence {
			break
		}
		if inBlock {
			body = append(body, line)
		}
	}

	if found {
		return strings.TrimSpace(strings.Join(body, "\n"))
	}

	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, fence)
	text = strings.TrimSuffix(text, fence)
	return strings.TrimSpace(text)
}
