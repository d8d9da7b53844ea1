// Package output renders command results for terminals, agents and scripts.
//
// The auto mode prints styled text on a terminal and markdown when piped.
// json and yaml are stable machine formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Mode selects the output format.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
	ModeYAML     Mode = "yaml"
)

// Modes returns the accepted --output values.
func Modes() []string {
	return []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON), string(ModeYAML)}
}

// Renderer writes command output in one mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	isTTY  bool
	mode   Mode
	styles Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	lr := lipgloss.NewRenderer(out, termenv.WithTTY(isTTY))
	if !isTTY {
		lr.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		isTTY:  isTTY,
		mode:   mode,
		styles: newStyles(lr),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Mode returns the configured mode.
func (r *Renderer) Mode() Mode {
	return r.mode
}

// EffectiveMode resolves auto: text on a terminal, markdown otherwise.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool {
	return r.isTTY
}

// Writer returns the standard output writer.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// ErrWriter returns the error output writer.
func (r *Renderer) ErrWriter() io.Writer {
	return r.errOut
}

// Styles returns the renderer's styles.
func (r *Renderer) Styles() Styles {
	return r.styles
}

// Println writes a line to standard output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to standard output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header prints a level 1 or 2 heading in the effective mode.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatHeader(level, text))
		r.Println("")
		return
	}
	style := r.styles.Header2
	if level <= 1 {
		style = r.styles.Header1
	}
	r.Println(style.Render(text))
}

// Success prints a success line to standard output.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render("✓ " + msg))
}

// Warning prints a warning line to the error output.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("! "+msg))
}

// Error prints an error line to the error output.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("✗ "+msg))
}

// Muted renders secondary text.
func (r *Renderer) Muted(text string) string {
	return r.styles.Muted.Render(text)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as YAML. Values are passed through JSON first so the
// json tags and MarshalJSON methods of the domain types decide the shape.
func (r *Renderer) YAML(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	blockStyle(&doc)
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

// Data writes v in the effective machine mode. It reports false when the
// effective mode is a human one and nothing was written.
func (r *Renderer) Data(v any) (bool, error) {
	switch r.EffectiveMode() {
	case ModeJSON:
		return true, r.JSON(v)
	case ModeYAML:
		return true, r.YAML(v)
	}
	return false, nil
}

// blockStyle clears the flow and quoting styles a JSON source leaves on
// the nodes, keeping key order.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
