package commands

import (
	"github.com/leapstack-labs/portion/internal/source"
	"github.com/leapstack-labs/portion/pkg/document"
	"github.com/leapstack-labs/portion/pkg/parser"
	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/spf13/cobra"
)

// ScaleOutput is the machine-readable result of the scale command.
type ScaleOutput struct {
	Source string      `json:"source"`
	Factor ratio.Ratio `json:"factor"`
	Text   string      `json:"text"`
}

// NewScaleCommand creates the scale command.
func NewScaleCommand() *cobra.Command {
	var (
		by   string
		html bool
	)

	cmd := &cobra.Command{
		Use:   "scale [file] --by <factor>",
		Short: "Multiply every quantity in a text",
		Long: `Multiply every quantity in a text by a factor and print the text with each
quantity in its best unit. Temperatures are kept as written.`,
		Example: `  # Halve a recipe
  portion scale pancakes.txt --by 1/2

  # Triple from a pipe
  cat soup.md | portion scale --by 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			factor, err := parser.Factor(by)
			if err != nil {
				return err
			}

			name := source.Stdin
			if len(args) == 1 {
				name = args[0]
			}
			loader := source.NewLoader()
			loader.HTML = html
			loader.Stdin = cmd.InOrStdin()
			in, err := loader.Load(cmd.Context(), name)
			if err != nil {
				return err
			}

			doc := document.ParseWith(cmdCtx.Parser, in.Text)
			out := ScaleOutput{Source: in.Name, Factor: factor, Text: document.Scale(doc, factor, cmdCtx.Style)}

			if ok, err := cmdCtx.Renderer.Data(out); ok {
				return err
			}
			cmdCtx.Renderer.Printf("%s", out.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "Scaling factor such as 2, 1/2 or 1.5")
	cmd.Flags().BoolVar(&html, "html", false, "Treat the input as HTML")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}
