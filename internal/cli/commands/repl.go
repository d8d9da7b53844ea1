package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/portion/internal/cli/output"
	"github.com/leapstack-labs/portion/internal/report"
	"github.com/leapstack-labs/portion/internal/state"
	"github.com/leapstack-labs/portion/pkg/document"
	"github.com/leapstack-labs/portion/pkg/parser"
	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/leapstack-labs/portion/pkg/unit"
	"github.com/spf13/cobra"
)

const replPrompt = "portion> "

// replSession is the state of one REPL.
type replSession struct {
	parser *parser.Parser
	r      *output.Renderer
	style  unit.Style
	factor ratio.Ratio
}

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Convert quantities interactively",
		Long: `Start an interactive session. Each line of text is scanned and every
quantity found is shown in its best unit, scaled by the session factor.

Dot-commands:
  .style <abbreviated|described>  change the unit style
  .scale <factor>                 set the scaling factor
  .best <quantity>                show all candidates for a quantity
  .convert <quantity> to <unit>   express a quantity in a unit
  .units [dimension]              list units
  .help                           show this help
  .quit                           leave`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runREPL(cmd, cmdCtx)
		},
	}
}

func runREPL(cmd *cobra.Command, cmdCtx *CommandContext) error {
	historyFile := ""
	if !state.IsDSN(cmdCtx.Cfg.StatePath) {
		dir := filepath.Dir(cmdCtx.Cfg.StatePath)
		if err := os.MkdirAll(dir, 0o750); err == nil {
			historyFile = filepath.Join(dir, "repl_history")
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    replCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	session := newREPLSession(cmdCtx.Parser, cmdCtx.Renderer, cmdCtx.Style)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "portion REPL. Type .help for commands, .quit to exit")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if quit := session.eval(line); quit {
			return nil
		}
	}
}

func replCompleter() *readline.PrefixCompleter {
	styles := []readline.PrefixCompleterInterface{readline.PcItem("abbreviated"), readline.PcItem("described")}
	var dims []readline.PrefixCompleterInterface
	for _, name := range dimensionNames() {
		dims = append(dims, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem(".style", styles...),
		readline.PcItem(".scale"),
		readline.PcItem(".best"),
		readline.PcItem(".convert"),
		readline.PcItem(".units", dims...),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
	)
}

func newREPLSession(p *parser.Parser, r *output.Renderer, style unit.Style) *replSession {
	return &replSession{parser: p, r: r, style: style, factor: ratio.One}
}

// eval runs one input line and reports whether the session should end.
// Errors are printed, never returned.
func (s *replSession) eval(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ".") {
		s.scan(line)
		return false
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case ".quit", ".exit":
		return true
	case ".help":
		s.r.Println("Type text to scan it. Commands: .style .scale .best .convert .units .help .quit")
	case ".style":
		style, err := unit.ParseStyle(arg)
		if err != nil {
			s.r.Error(err.Error())
			return false
		}
		s.style = style
		s.r.Success("style " + style.String())
	case ".scale":
		factor, err := parser.Factor(arg)
		if err != nil {
			s.r.Error(err.Error())
			return false
		}
		s.factor = factor
		s.r.Success("scaling by " + factor.String())
	case ".best":
		best, err := report.NewBest(s.parser, arg, s.style)
		if err != nil {
			s.r.Error(err.Error())
			return false
		}
		_ = renderBest(s.r, best)
	case ".convert":
		quantity, to, ok := strings.Cut(arg, " to ")
		if !ok {
			s.r.Error("usage: .convert <quantity> to <unit>")
			return false
		}
		conv, err := report.Convert(s.parser, quantity, strings.TrimSpace(to), s.style)
		if err != nil {
			s.r.Error(err.Error())
			return false
		}
		s.r.Printf("%s = %s\n", conv.Input, s.r.Styles().Bold.Render(conv.Text))
	case ".units":
		var only *unit.Dimension
		if arg != "" {
			d, err := unit.ParseDimension(arg)
			if err != nil {
				s.r.Error(err.Error())
				return false
			}
			only = &d
		}
		_ = renderUnits(s.r, report.Units(s.parser.Resolver(), only))
	default:
		s.r.Error(fmt.Sprintf("unknown command %s (try .help)", name))
	}
	return false
}

// scan prints every quantity of line in its best unit, then the line
// rewritten with the session factor.
func (s *replSession) scan(line string) {
	doc := document.ParseWith(s.parser, line)
	if len(doc.Tokens) == 0 && len(doc.Diagnostics) == 0 {
		s.r.Println(s.r.Muted("no quantities found"))
		return
	}
	for _, tok := range doc.Tokens {
		t := report.NewToken(tok, s.style)
		s.r.Printf("  %s -> %s\n", t.Raw, s.r.Styles().Bold.Render(t.Best))
	}
	for _, d := range doc.Diagnostics {
		s.r.Error(fmt.Sprintf("%q: %s", doc.Slice(d.Span), d.Err))
	}
	if !s.factor.Equal(ratio.One) {
		s.r.Println(document.Scale(doc, s.factor, s.style))
	}
}
