package commands

import (
	"strings"

	"github.com/leapstack-labs/portion/internal/cli/output"
	"github.com/leapstack-labs/portion/internal/report"
	"github.com/spf13/cobra"
)

// NewBestCommand creates the best command.
func NewBestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "best <quantity>",
		Short: "Show the most readable form of a quantity",
		Long: `Show every display candidate of a quantity and the one portion picks: the
simplest exact form, preferring common units.`,
		Example: `  portion best 48 tsp
  portion best "1 1/2 cups" -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			best, err := report.NewBest(cmdCtx.Parser, strings.Join(args, " "), cmdCtx.Style)
			if err != nil {
				return err
			}
			return renderBest(cmdCtx.Renderer, best)
		},
	}
}

func renderBest(r *output.Renderer, best report.Best) error {
	if ok, err := r.Data(best); ok {
		return err
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, best.Input))
		r.Println("")
		r.Println(output.FormatKeyValue("Best", best.Best))
		if len(best.Candidates) > 0 {
			r.Println(output.FormatKeyValue("Candidates", strings.Join(best.Candidates, ", ")))
		}
		return nil
	}

	r.Printf("%s = %s\n", best.Input, r.Styles().Bold.Render(best.Best))
	for _, c := range best.Candidates {
		if c == best.Best {
			continue
		}
		r.Println(r.Muted("  or " + c))
	}
	return nil
}
