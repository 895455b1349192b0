package cli

import (
	"github.com/spf13/cobra"

	"github.com/institutoite/bolivia/internal/server"
	"github.com/institutoite/bolivia/pkg/session"
)

// serveCommand runs the HTTP API until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr, catalogSrc, dataDir string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the map composer over HTTP",
		Long: `Serve the map composer API. Each browser gets its own session, kept
for server.session_ttl after its last request.

Flags override the [server] section of the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if catalogSrc != "" {
				cfg.Server.Catalog = catalogSrc
			}
			if dataDir != "" {
				cfg.Server.DataDir = dataDir
			}

			cat, err := loadCatalog(cfg.Server.Catalog)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(server.Options{
				Config:  cfg,
				Catalog: cat,
				Runner:  runner,
				Store:   session.NewMemoryStore(cfg.Server.SessionTTL),
				Logger:  c.Logger,
			})
			printInfo("Serving %d layers on %s", len(cat.Entries), StyleLink.Render("http://"+displayAddr(cfg.Server.Addr)))
			if cfg.Server.ADM1 == "" {
				printWarning("no political base configured (server.adm1, server.adm3)")
			}
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&catalogSrc, "catalog", "", "catalog index file or directory")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory local layer paths are relative to")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
