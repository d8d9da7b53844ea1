package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/portion/internal/cli/config"
	"github.com/leapstack-labs/portion/internal/cli/output"
	"github.com/leapstack-labs/portion/internal/state"
	"github.com/leapstack-labs/portion/pkg/parser"
	"github.com/leapstack-labs/portion/pkg/unit"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Parser   *parser.Parser
	Style    unit.Style
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := getConfig()
	resolver, err := cfg.Resolver()
	if err != nil {
		return nil, err
	}

	mode := output.Mode(cfg.OutputFormat)
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
		Parser:   parser.New(parser.WithResolver(resolver)),
		Style:    cfg.DisplayStyle(),
	}, nil
}

// OpenStore opens the configured state store. The caller closes it.
func (c *CommandContext) OpenStore(ctx context.Context) (*state.SQLStore, error) {
	store, err := state.Open(ctx, c.Cfg.StatePath, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return store, nil
}

// getConfig returns the current configuration, or the defaults when the
// command runs without the root's config loading (as in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		OutputFormat: config.DefaultOutput,
		Style:        config.DefaultStyle,
		StatePath:    config.DefaultStateFile,
		Parse:        config.ParseConfig{Concurrency: config.DefaultConcurrency},
	}
}
