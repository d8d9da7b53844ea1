package commands

import (
	"strings"

	"github.com/leapstack-labs/portion/internal/report"
	"github.com/spf13/cobra"
)

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "convert <quantity> --to <unit>",
		Short: "Express a quantity in another unit",
		Long: `Express a quantity in a unit of the same dimension. Results are exact:
thirds stay thirds.`,
		Example: `  portion convert 1/2 cup --to tbsp
  portion convert "90 min" --to hours --style described`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			conv, err := report.Convert(cmdCtx.Parser, strings.Join(args, " "), to, cmdCtx.Style)
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			if ok, err := r.Data(conv); ok {
				return err
			}
			r.Printf("%s = %s\n", conv.Input, r.Styles().Bold.Render(conv.Text))
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target unit")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
