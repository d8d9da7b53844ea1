package commands

import (
	"github.com/leapstack-labs/portion/internal/server"
	"github.com/leapstack-labs/portion/internal/state"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var noStore bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and scratch pad",
		Long: `Start an HTTP server with a JSON API, a live scratch pad page and
Prometheus metrics at /metrics.

With --watch-dir, text files under the directory are scanned at start and
again whenever they change; results are saved and pushed to open pages.`,
		Example: `  portion serve
  portion serve --addr :9000 --watch-dir recipes/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			sc := cmdCtx.Cfg.GetServeConfig()

			var store state.Store
			if !noStore {
				s, err := cmdCtx.OpenStore(cmd.Context())
				if err != nil {
					return err
				}
				defer func() { _ = s.Close() }()
				store = s
			}

			srv := server.NewServer(server.Config{
				Addr:            sc.Addr,
				WatchDir:        sc.WatchDir,
				SessionSecret:   sc.SessionSecret,
				ShutdownTimeout: sc.ShutdownTimeout,
				Concurrency:     cmdCtx.Cfg.Parse.Concurrency,
				Parser:          cmdCtx.Parser,
				Store:           store,
				Style:           cmdCtx.Style,
				Logger:          cmdCtx.Logger,
			})

			cmdCtx.Renderer.Success("Serving on " + sc.Addr)
			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default :8765)")
	cmd.Flags().String("watch-dir", "", "Directory of text files to scan and watch")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not open the state database")
	return cmd
}
