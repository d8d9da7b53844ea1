package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/portion/internal/cli/output"
	"github.com/leapstack-labs/portion/internal/report"
	"github.com/leapstack-labs/portion/pkg/document"
	"github.com/leapstack-labs/portion/pkg/token"
)

// renderReports writes scan reports in the renderer's effective mode. docs
// holds the scanned documents in report order and is only needed when
// highlight is set.
func renderReports(r *output.Renderer, reports []report.Report, docs []*document.Document, highlight bool) error {
	if ok, err := r.Data(reports); ok {
		return err
	}
	for i, rep := range reports {
		renderReport(r, rep)
		if highlight && i < len(docs) {
			r.Header(2, "Text")
			r.Println(highlightText(r, docs[i]))
			r.Println("")
		}
	}
	return nil
}

// renderReport writes one report as text or markdown.
func renderReport(r *output.Renderer, rep report.Report) {
	markdown := r.EffectiveMode() == output.ModeMarkdown

	r.Header(1, fmt.Sprintf("%s (%s)", rep.Source, plural(len(rep.Tokens), "measurement")))
	if len(rep.Tokens) > 0 {
		rows := make([][]string, 0, len(rep.Tokens))
		for _, tok := range rep.Tokens {
			rows = append(rows, []string{
				tok.Raw,
				tok.Best,
				tok.Measure.Dimension().String(),
				fmt.Sprintf("%d-%d", tok.Start, tok.End),
			})
		}
		r.Table([]string{"Found", "Best", "Dimension", "Position"}, rows)
		r.Println("")
	}

	if len(rep.Diagnostics) > 0 {
		if markdown {
			r.Header(2, "Diagnostics")
		}
		for _, d := range rep.Diagnostics {
			msg := fmt.Sprintf("%q at %d-%d: %s", d.Text, d.Start, d.End, d.Error)
			if markdown {
				r.Println("- " + msg)
			} else {
				r.Warning(msg)
			}
		}
		if markdown {
			r.Println("")
		}
	}

	if len(rep.Totals) > 0 {
		r.Header(2, "Totals")
		for _, t := range rep.Totals {
			if markdown {
				r.Println(output.FormatKeyValue(output.Title(t.Dimension.String()), t.Text))
				continue
			}
			r.Printf("  %-12s %s\n", output.Title(t.Dimension.String()), r.Styles().Bold.Render(t.Text))
		}
		r.Println("")
	}
}

// highlightText returns the document text with measurements marked: bold
// and struck through in markdown, colored in text.
func highlightText(r *output.Renderer, doc *document.Document) string {
	markdown := r.EffectiveMode() == output.ModeMarkdown
	var b strings.Builder
	for _, seg := range doc.Segments() {
		switch {
		case seg.Kind == token.MEASURE && markdown:
			b.WriteString("**" + seg.Text + "**")
		case seg.Kind == token.MEASURE:
			b.WriteString(r.Styles().Measure.Render(seg.Text))
		case seg.Kind == token.INVALID && markdown:
			b.WriteString("~~" + seg.Text + "~~")
		case seg.Kind == token.INVALID:
			b.WriteString(r.Styles().Invalid.Render(seg.Text))
		default:
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
