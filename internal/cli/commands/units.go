package commands

import (
	"strings"

	"github.com/leapstack-labs/portion/internal/cli/output"
	"github.com/leapstack-labs/portion/internal/report"
	"github.com/leapstack-labs/portion/pkg/unit"
	"github.com/spf13/cobra"
)

// NewUnitsCommand creates the units command.
func NewUnitsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "units [dimension]",
		Short: "List known units",
		Long: `List the units portion recognizes, including units defined in the config
file. Multiples are in the dimension's base unit: drops for volume, seconds
for time.`,
		Example: `  portion units
  portion units volume -o yaml`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: dimensionNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			var only *unit.Dimension
			if len(args) == 1 {
				d, err := unit.ParseDimension(args[0])
				if err != nil {
					return err
				}
				only = &d
			}
			return renderUnits(cmdCtx.Renderer, report.Units(cmdCtx.Parser.Resolver(), only))
		},
	}
}

func renderUnits(r *output.Renderer, units []report.UnitInfo) error {
	if ok, err := r.Data(units); ok {
		return err
	}

	r.Header(1, "Units ("+plural(len(units), "unit")+")")
	rows := make([][]string, 0, len(units))
	for _, u := range units {
		common := ""
		if u.Common {
			common = "yes"
		}
		rows = append(rows, []string{
			u.Name,
			u.Abbreviation,
			output.Title(u.Dimension.String()),
			u.Multiple.String(),
			common,
			strings.Join(u.Aliases, ", "),
		})
	}
	r.Table([]string{"Name", "Abbrev", "Dimension", "Multiple", "Common", "Aliases"}, rows)
	return nil
}

func dimensionNames() []string {
	var names []string
	for _, d := range unit.Dimensions() {
		names = append(names, d.String())
	}
	return names
}
