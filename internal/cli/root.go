// Package cli provides the command-line interface for portion.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/portion/internal/cli/commands"
	"github.com/leapstack-labs/portion/internal/cli/config"
	"github.com/leapstack-labs/portion/internal/cli/output"
	"github.com/spf13/cobra"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "portion",
		Short: "portion - find, convert and scale quantities in text",
		Long: `portion finds quantities like "1 ½ cups" or "90 min" in text, converts them
to their most readable unit and scales them exactly with rational arithmetic.

Text, markdown and HTML sources are supported, from files, URLs or stdin.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			cmd.SetContext(config.WithLogger(cmd.Context(), logger))

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					logger.Debug("using config file", "path", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
` + fmt.Sprintf("commit %s, built %s\n", GitCommit, BuildDate))

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./portion.yaml)")
	rootCmd.PersistentFlags().String("state", "", "Path to state database or postgres:// DSN")
	rootCmd.PersistentFlags().String("style", "", "Unit style (abbreviated|described)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json|yaml)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.Modes(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("style", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"abbreviated", "described"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewParseCommand())
	rootCmd.AddCommand(commands.NewConvertCommand())
	rootCmd.AddCommand(commands.NewBestCommand())
	rootCmd.AddCommand(commands.NewScaleCommand())
	rootCmd.AddCommand(commands.NewUnitsCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewREPLCommand())
	rootCmd.AddCommand(commands.NewBrowseCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for portion.

To load completions:

Bash:
  $ source <(portion completion bash)

Zsh:
  $ portion completion zsh > "${fpath[1]}/_portion"

Fish:
  $ portion completion fish | source

PowerShell:
  PS> portion completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
