package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/institutoite/bolivia/pkg/buildinfo"
	"github.com/institutoite/bolivia/pkg/catalog"
	"github.com/institutoite/bolivia/pkg/config"
	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/layers"
	"github.com/institutoite/bolivia/pkg/observability"
	"github.com/institutoite/bolivia/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "mapabo"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag.
	ConfigPath string

	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "mapabo composes thematic maps of Bolivia",
		Long:         `mapabo loads GeoJSON layers of Bolivia, places their labels, styles the departments and provinces, and exports the result as PNG, PDF or SVG. It also serves the composer over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			observability.Register(observability.NewLogHooks(c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "configuration file (default $MAPABO_CONFIG or ./mapabo.toml)")

	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.labelsCommand())
	root.AddCommand(c.regionsCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// config loads the configuration once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		c.Logger.Debug("configuration loaded", "file", cfg.File)
	}
	for _, k := range cfg.Unknown {
		c.Logger.Warn("unknown configuration key", "key", k)
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Layers are read relative
// to the configured data directory and cached with the configured TTL.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	cc, keyer, err := cfg.OpenCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, keyer, loggerFromContext(ctx))
	r.Loader = layers.NewFetcher(
		layers.WithCache(cc, keyer, cfg.Cache.LayerTTL),
		layers.WithDataDir(cfg.Server.DataDir),
	)
	return r, nil
}

// =============================================================================
// Inputs
// =============================================================================

// loadCatalog reads a catalog from a JSON index file or by scanning a
// directory. An empty source is the built-in catalog.
func loadCatalog(src string) (*catalog.Catalog, error) {
	if src == "" {
		return catalog.Default(), nil
	}
	st, err := os.Stat(src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "catalog %s", src)
	}
	if st.IsDir() {
		// Scanned URLs keep the directory so they resolve from the working
		// directory.
		return catalog.ScanDir(src, filepath.ToSlash(src))
	}
	return catalog.LoadFile(src)
}

// layerEntry resolves a command argument against the catalog, by URL or
// file name. Unknown arguments are taken as paths or URLs.
func layerEntry(cat *catalog.Catalog, arg string) catalog.Entry {
	if e, ok := cat.Find(arg); ok {
		return e
	}
	return catalog.Entry{Name: arg, URL: arg, Group: catalog.DefaultGroup}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput opens path for writing; "" and "-" mean stdout.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
