package commands

import (
	"runtime"

	"github.com/leapstack-labs/portion/pkg/unit"
	"github.com/spf13/cobra"
)

// VersionInfo is the machine-readable output of the version command.
type VersionInfo struct {
	Version string `json:"version"`
	Go      string `json:"go"`
	Units   int    `json:"builtin_units"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the portion version, the Go release it was built with and the size of the unit table.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			info := VersionInfo{
				Version: version,
				Go:      runtime.Version(),
				Units:   len(unit.Default().Units()),
			}
			if ok, err := cmdCtx.Renderer.Data(info); ok {
				return err
			}
			cmdCtx.Renderer.Printf("portion v%s\n", info.Version)
			cmdCtx.Renderer.Printf("Exact quantity conversion, built with %s (%d units)\n", info.Go, info.Units)
			return nil
		},
	}
}
