package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatHeader returns a markdown heading.
func FormatHeader(level int, text string) string {
	return strings.Repeat("#", max(level, 1)) + " " + text
}

// FormatKeyValue returns a markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s:** %s", key, value)
}

// Title returns s in English title case.
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

// Table prints rows under header: a box-drawn table for text, a pipe table
// for markdown.
func (r *Renderer) Table(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		return
	}
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.Render()
}
