/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

type column struct {
	title string
	align tw.Align
}

func text(title string) column   { return column{title: title, align: tw.AlignLeft} }
func number(title string) column { return column{title: title, align: tw.AlignRight} }

// report buffers the rows of one command's output. Numeric columns are
// right-aligned and an optional footer carries totals.
type report struct {
	columns []column
	rows    [][]string
	footer  []string
	note    string
}

func newReport(columns ...column) *report {
	return &report{columns: columns}
}

func (r *report) add(cells ...string) { r.rows = append(r.rows, cells) }

func (r *report) total(cells ...string) { r.footer = cells }

// caption is printed under the table.
func (r *report) caption(note string) { r.note = note }

// write renders r to w with light rules between the header, body and footer
// and no outer border.
func (r *report) write(w io.Writer) error {
	titles := make([]string, len(r.columns))
	align := tw.CellAlignment{PerColumn: make([]tw.Align, len(r.columns))}
	for i, c := range r.columns {
		titles[i] = c.title
		align.PerColumn[i] = c.align
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders: tw.BorderNone,
			Symbols: tw.NewSymbols(tw.StyleLight),
			Settings: tw.Settings{
				Separators: tw.Separators{BetweenColumns: tw.On},
				Lines:      tw.Lines{ShowHeaderLine: tw.On, ShowFooterLine: tw.On},
			},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{Alignment: align, Formatting: tw.CellFormatting{AutoFormat: tw.Off}},
			Row:    tw.CellConfig{Alignment: align},
			Footer: tw.CellConfig{Alignment: align, Formatting: tw.CellFormatting{AutoFormat: tw.Off}},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
	table.Header(titles)
	if err := table.Bulk(r.rows); err != nil {
		return err
	}
	if r.footer != nil {
		table.Footer(r.footer)
	}
	if r.note != "" {
		// Wide enough that the note stays on one line.
		table.Caption(tw.Caption{Text: r.note, Spot: tw.SpotBottomLeft, Width: len(r.note)})
	}
	return table.Render()
}
