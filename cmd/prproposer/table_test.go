/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	r := newReport(text("File"), number("Bytes"))
	r.add("a.py", "5")
	r.add("longer/name.go", "1234")
	r.total("2 changes", "1239")
	r.caption("answered by fake")

	var out bytes.Buffer
	require.NoError(t, r.write(&out))

	lines := strings.Split(out.String(), "\n")
	end := func(cell string) int {
		t.Helper()
		for _, l := range lines {
			if i := strings.Index(l, " "+cell+" "); i >= 0 {
				return i + 1 + len(cell)
			}
		}
		t.Fatalf("no cell %q in:\n%s", cell, out.String())
		return 0
	}
	require.Equal(t, end("1234"), end("5"), "numbers are right-aligned:\n%s", out.String())
	require.Equal(t, end("1234"), end("1239"), "footer follows column alignment:\n%s", out.String())
	require.Less(t, strings.Index(out.String(), "a.py"), strings.Index(out.String(), "2 changes"))
	require.Contains(t, out.String(), "answered by fake")
	require.NotContains(t, out.String(), "┌", "no outer border")
}
