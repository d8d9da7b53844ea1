package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/portion/internal/cli/config"
	"github.com/leapstack-labs/portion/internal/cli/output"
	"github.com/leapstack-labs/portion/internal/report"
	"github.com/leapstack-labs/portion/internal/scan"
	"github.com/leapstack-labs/portion/internal/source"
	"github.com/leapstack-labs/portion/internal/state"
	"github.com/leapstack-labs/portion/internal/watch"
	"github.com/leapstack-labs/portion/pkg/document"
	"github.com/spf13/cobra"
)

// ParseOptions holds options for the parse command.
type ParseOptions struct {
	HTML      bool
	Watch     bool
	Save      bool
	Highlight bool
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [files or URLs...]",
		Short: "Find quantities in text",
		Long: `Scan files, web pages or standard input for quantities and show each one
with its best unit, plus per-dimension totals.

Inputs are read concurrently. HTML pages are reduced to their main content
before scanning. With no arguments, or "-", standard input is read.

Output adapts to environment:
  - Terminal: Styled tables
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json, yaml`,
		Example: `  # Scan a recipe
  portion parse pancakes.txt

  # Scan a web page and mark the quantities in its text
  portion parse --highlight https://example.com/recipe

  # Scan from a pipe as JSON
  cat notes.md | portion parse -o json

  # Keep scanning a directory as files change, recording every scan
  portion parse --watch --save recipes/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.HTML, "html", false, "Treat every input as HTML")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Rescan files under a directory as they change")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Record each scan in the state database")
	cmd.Flags().BoolVar(&opts.Highlight, "highlight", false, "Print the text with quantities marked")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency, "Maximum inputs read at once")

	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts *ParseOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	loader := source.NewLoader()
	loader.HTML = opts.HTML
	loader.Stdin = cmd.InOrStdin()
	scanner := &scan.Scanner{
		Parser:      cmdCtx.Parser,
		Loader:      loader,
		Concurrency: cmdCtx.Cfg.Parse.Concurrency,
		Logger:      cmdCtx.Logger,
	}

	var store state.Store
	if opts.Save {
		s, err := cmdCtx.OpenStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		store = s
	}

	if opts.Watch {
		if len(args) != 1 {
			return fmt.Errorf("--watch needs exactly one directory")
		}
		return watchParse(ctx, cmdCtx, scanner, store, args[0], opts)
	}

	if len(args) == 0 {
		args = []string{source.Stdin}
	}
	results, err := scanner.Files(ctx, args)
	if err != nil {
		return err
	}
	return emitResults(ctx, cmdCtx, store, results, opts)
}

// emitResults saves and renders scan results.
func emitResults(ctx context.Context, cmdCtx *CommandContext, store state.Store, results []scan.Result, opts *ParseOptions) error {
	reports := make([]report.Report, len(results))
	docs := make([]*document.Document, len(results))
	for i, res := range results {
		reports[i] = report.New(res.Name, res.Doc, cmdCtx.Style)
		docs[i] = res.Doc
		if store == nil {
			continue
		}
		rec := state.NewDocument(res.Name, res.Doc, cmdCtx.Style)
		if err := store.SaveDocument(ctx, rec); err != nil {
			return err
		}
		reports[i].DocumentID = rec.ID
		cmdCtx.Logger.Info("saved scan", slog.String("source", res.Name), slog.String("id", rec.ID))
	}

	if err := renderReports(cmdCtx.Renderer, reports, docs, opts.Highlight); err != nil {
		return err
	}
	if store != nil && cmdCtx.Renderer.EffectiveMode() == output.ModeText {
		cmdCtx.Renderer.Success(fmt.Sprintf("Saved %s", plural(len(results), "scan")))
	}
	return nil
}

// watchParse scans every watched file under dir, then rescans changed files
// until ctx is cancelled.
func watchParse(ctx context.Context, cmdCtx *CommandContext, scanner *scan.Scanner, store state.Store, dir string, opts *ParseOptions) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	w := &watch.Watcher{
		Dir:    dir,
		Logger: cmdCtx.Logger,
		OnChange: func(ctx context.Context, paths []string) {
			results, err := scanner.Files(ctx, paths)
			if err != nil {
				cmdCtx.Renderer.Error(err.Error())
				return
			}
			if err := emitResults(ctx, cmdCtx, store, results, opts); err != nil {
				cmdCtx.Renderer.Error(err.Error())
			}
		},
	}

	files, err := w.Files()
	if err != nil {
		return err
	}
	w.OnChange(ctx, files)

	cmdCtx.Logger.Info("watching for changes", slog.String("dir", dir))
	return w.Run(ctx)
}
