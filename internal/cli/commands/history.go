package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/portion/internal/cli/output"
	"github.com/leapstack-labs/portion/internal/state"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04:05"

// NewHistoryCommand creates the history command and its subcommands.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved scans",
		Long: `List scans recorded with "parse --save" or by the server, newest first.
Use "history show <id>" for the measurements of one scan.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, err := cmdCtx.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			docs, err := store.ListDocuments(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if docs == nil {
				docs = []*state.Document{}
			}
			return renderHistory(cmdCtx.Renderer, docs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum scans listed (0 for all)")

	cmd.AddCommand(newHistoryShowCommand(), newHistoryDeleteCommand())
	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one saved scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, err := cmdCtx.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			doc, err := store.GetDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderSavedDocument(cmdCtx.Renderer, doc)
		},
	}
}

func newHistoryDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete one saved scan",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, err := cmdCtx.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteDocument(cmd.Context(), args[0]); err != nil {
				return err
			}
			if ok, err := cmdCtx.Renderer.Data(map[string]string{"deleted": args[0]}); ok {
				return err
			}
			cmdCtx.Renderer.Success("Deleted " + args[0])
			return nil
		},
	}
}

func renderHistory(r *output.Renderer, docs []*state.Document) error {
	if ok, err := r.Data(docs); ok {
		return err
	}

	r.Header(1, fmt.Sprintf("Saved scans (%d)", len(docs)))
	if len(docs) == 0 {
		r.Println(r.Muted("Nothing saved yet. Use parse --save."))
		return nil
	}
	rows := make([][]string, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, []string{
			d.ID,
			d.Source,
			fmt.Sprintf("%d", d.Tokens),
			fmt.Sprintf("%d", d.Diagnostics),
			d.ParsedAt.Local().Format(timeLayout),
		})
	}
	r.Table([]string{"ID", "Source", "Measurements", "Invalid", "Parsed"}, rows)
	return nil
}

func renderSavedDocument(r *output.Renderer, doc *state.Document) error {
	if ok, err := r.Data(doc); ok {
		return err
	}

	r.Header(1, doc.Source)
	r.Println(output.FormatKeyValue("ID", doc.ID))
	r.Println(output.FormatKeyValue("Parsed", doc.ParsedAt.In(time.Local).Format(timeLayout)))
	r.Println(output.FormatKeyValue("Invalid", fmt.Sprintf("%d", doc.Diagnostics)))
	r.Println("")

	if len(doc.Measurements) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(doc.Measurements))
	for _, m := range doc.Measurements {
		rows = append(rows, []string{
			m.Raw,
			m.Best,
			m.Dimension.String(),
			fmt.Sprintf("%d-%d", m.Start, m.End),
		})
	}
	r.Table([]string{"Found", "Best", "Dimension", "Position"}, rows)
	return nil
}
