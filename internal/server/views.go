package server

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/leapstack-labs/portion/internal/state"
	"github.com/leapstack-labs/portion/pkg/document"
	"github.com/leapstack-labs/portion/pkg/measure"
	"github.com/leapstack-labs/portion/pkg/token"
	"github.com/leapstack-labs/portion/pkg/unit"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// htmlWriter accumulates the first write error so views read top to bottom.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) rawf(format string, a ...any) {
	h.raw(fmt.Sprintf(format, a...))
}

func (h *htmlWriter) component(ctx context.Context, c templ.Component) {
	if h.err == nil {
		h.err = c.Render(ctx, h.w)
	}
}

// resultView is the outcome of a scratch pad parse.
type resultView struct {
	Doc       *document.Document
	Style     unit.Style
	Converted string
	Factor    string
	Error     string
}

// indexView is the data of the index page.
type indexView struct {
	Title     string
	Style     unit.Style
	Documents []*state.Document
	Stored    bool
}

// IndexPage renders the full scratch pad page.
func IndexPage(data indexView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<!doctype html>\n<html lang=\"en\"><head><meta charset=\"utf-8\">")
		h.raw("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		h.rawf("<title>%s - Portion</title>", templ.EscapeString(data.Title))
		h.rawf("<script type=\"module\" src=\"%s\"></script>", datastarScript)
		h.raw("<script defer src=\"/static/app.js\"></script>")
		h.raw("<style>" + pageCSS + "</style></head>")
		h.rawf("<body data-signals='{\"text\":\"\",\"factor\":\"1\",\"style\":\"%s\"}' data-init=\"@get('/updates')\">",
			templ.EscapeString(data.Style.String()))
		h.raw("<main class=\"ui-content\"><h1>Portion</h1>")
		h.raw("<section class=\"pad\"><textarea data-bind:text rows=\"8\" placeholder=\"Paste a recipe\"></textarea>")
		h.raw("<div class=\"controls\"><label>Scale <input data-bind:factor size=\"4\"></label>")
		h.raw("<label>Style <select data-bind:style>")
		for _, st := range []unit.Style{unit.Abbreviated, unit.Described} {
			selected := ""
			if st == data.Style {
				selected = " selected"
			}
			h.rawf("<option value=\"%s\"%s>%s</option>", st, selected, st)
		}
		h.raw("</select></label>")
		h.raw("<button id=\"parse-button\" data-on:click=\"@post('/ui/parse')\">Convert</button></div></section>")
		h.component(ctx, ResultView(resultView{Style: data.Style}))
		if data.Stored {
			h.raw("<section><h2>Scanned documents</h2>")
			h.component(ctx, DocumentList(data.Documents))
			h.raw("</section>")
		}
		h.raw("</main></body></html>")
		return h.err
	})
}

// ResultView renders the highlighted text, the converted text and the
// totals of one parse.
func ResultView(data resultView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<section id=\"result\">")
		switch {
		case data.Error != "":
			h.rawf("<p class=\"error\">%s</p>", templ.EscapeString(data.Error))
		case data.Doc != nil:
			h.raw("<h2>Found</h2><pre class=\"highlighted\">")
			for _, seg := range data.Doc.Segments() {
				writeSegment(h, seg, data.Style)
			}
			h.raw("</pre>")
			h.rawf("<h2>Converted <small>x%s</small> <button data-copy=\"converted\">Copy</button></h2>", templ.EscapeString(data.Factor))
			h.raw("<pre id=\"converted\">")
			h.text(data.Converted)
			h.raw("</pre>")
			h.component(ctx, totalsView(data.Doc.Totals(), data.Style))
		}
		h.raw("</section>")
		return h.err
	})
}

func writeSegment(h *htmlWriter, seg document.Segment, style unit.Style) {
	switch seg.Kind {
	case token.MEASURE:
		best := seg.Token.Measure.Text(style)
		if m, ok := seg.Token.Magnitude().BestMeasure(); ok {
			best = m.Text(style)
		}
		h.rawf("<mark title=\"%s\">", templ.EscapeString(best))
		h.text(seg.Text)
		h.raw("</mark>")
	case token.INVALID:
		msg := ""
		if seg.Err != nil {
			msg = seg.Err.Error()
		}
		h.rawf("<span class=\"invalid\" title=\"%s\">", templ.EscapeString(msg))
		h.text(seg.Text)
		h.raw("</span>")
	default:
		h.text(seg.Text)
	}
}

func totalsView(totals []measure.Measure, style unit.Style) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		if len(totals) == 0 {
			h.raw("<p class=\"muted\">No measurements found.</p>")
			return h.err
		}
		h.raw("<h2>Totals</h2><ul class=\"totals\">")
		for _, m := range totals {
			h.rawf("<li><span class=\"dim\">%s</span> %s</li>",
				templ.EscapeString(m.Dimension().String()), templ.EscapeString(m.Text(style)))
		}
		h.raw("</ul>")
		return h.err
	})
}

// DocumentList renders the stored documents, newest first.
func DocumentList(docs []*state.Document) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<ul id=\"documents\">")
		if len(docs) == 0 {
			h.raw("<li class=\"muted\">Nothing scanned yet.</li>")
		}
		for _, d := range docs {
			h.rawf("<li><a href=\"/api/documents/%s\">%s</a> <span class=\"muted\">%s</span> %s</li>",
				templ.EscapeString(d.ID),
				templ.EscapeString(d.Source),
				templ.EscapeString(d.ParsedAt.Format("2006-01-02 15:04:05")),
				templ.EscapeString(countSummary(d.Tokens, d.Diagnostics)))
		}
		h.raw("</ul>")
		return h.err
	})
}

func countSummary(tokens, diagnostics int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d measurement", tokens)
	if tokens != 1 {
		b.WriteString("s")
	}
	if diagnostics > 0 {
		fmt.Fprintf(&b, ", %d invalid", diagnostics)
	}
	return b.String()
}

const pageCSS = `body{font-family:system-ui,sans-serif;margin:0;background:#fafaf7;color:#222}
main{max-width:52rem;margin:2rem auto;padding:0 1rem}
textarea{width:100%;font:inherit}
.controls{display:flex;gap:1rem;align-items:center;margin:.5rem 0}
pre{white-space:pre-wrap;background:#fff;border:1px solid #ddd;padding:.75rem}
mark{background:#ffe9a8}
.invalid{text-decoration:underline wavy #c33}
.error{color:#c33}
.muted,.dim{color:#888}
.copied{background:#cfc}`
