package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/portion/internal/source"
	"github.com/leapstack-labs/portion/pkg/document"
	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/leapstack-labs/portion/pkg/unit"
	"github.com/spf13/cobra"
)

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [file]",
		Short: "Browse the quantities of a text interactively",
		Long: `Open a terminal view listing every quantity of a text with its best unit.

Keys:
  up/down  move
  + / -    double / halve the scaling factor
  r        reset the factor
  s        toggle abbreviated and described units
  q        quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			name := source.Stdin
			if len(args) == 1 {
				name = args[0]
			}
			loader := source.NewLoader()
			loader.Stdin = cmd.InOrStdin()
			in, err := loader.Load(cmd.Context(), name)
			if err != nil {
				return err
			}

			m := newBrowseModel(in.Name, document.ParseWith(cmdCtx.Parser, in.Text), cmdCtx.Style)
			_, err = tea.NewProgram(m,
				tea.WithContext(cmd.Context()),
				tea.WithOutput(cmd.OutOrStdout()),
				tea.WithAltScreen(),
			).Run()
			return err
		},
	}
}

var (
	browseTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	browseHelp  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// browseModel is the bubbletea model of the browse command.
type browseModel struct {
	name   string
	doc    *document.Document
	style  unit.Style
	factor ratio.Ratio
	table  table.Model
}

func newBrowseModel(name string, doc *document.Document, style unit.Style) browseModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Found", Width: 18},
			{Title: "Scaled", Width: 22},
			{Title: "Dimension", Width: 12},
			{Title: "Position", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(min(max(len(doc.Tokens), 1), 20)),
	)
	m := browseModel{name: name, doc: doc, style: style, factor: ratio.One, table: t}
	m.table.SetRows(m.rows())
	return m
}

// rows renders one row per token at the current factor and style.
func (m browseModel) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.doc.Tokens))
	for _, tok := range m.doc.Tokens {
		scaled := tok.Raw
		if tok.Measure.Dimension() != unit.Temperature {
			scaled = document.Render(tok.Magnitude().Scale(m.factor), tok.Measure.Unit).Text(m.style)
		}
		span := tok.Span()
		rows = append(rows, table.Row{
			tok.Raw,
			scaled,
			tok.Measure.Dimension().String(),
			fmt.Sprintf("%d-%d", span.Start, span.End),
		})
	}
	return rows
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "+", "=":
			m.factor = m.factor.Mul(ratio.Int(2))
		case "-", "_":
			m.factor = m.factor.Quo(ratio.Int(2))
		case "r":
			m.factor = ratio.One
		case "s":
			if m.style == unit.Abbreviated {
				m.style = unit.Described
			} else {
				m.style = unit.Abbreviated
			}
		default:
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
		m.table.SetRows(m.rows())
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m browseModel) View() string {
	var b strings.Builder
	b.WriteString(browseTitle.Render(fmt.Sprintf("%s: %s, x%s, %s",
		m.name, plural(len(m.doc.Tokens), "measurement"), m.factor, m.style)))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	if n := len(m.doc.Diagnostics); n > 0 {
		fmt.Fprintf(&b, "%d invalid skipped\n", n)
	}
	b.WriteString(browseHelp.Render("+/- scale  r reset  s style  q quit"))
	b.WriteString("\n")
	return b.String()
}
