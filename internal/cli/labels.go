package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/institutoite/bolivia/pkg/catalog"
	"github.com/institutoite/bolivia/pkg/label"
	"github.com/institutoite/bolivia/pkg/pipeline"
)

type labelsOpts struct {
	zoom    float64
	center  string
	size    string
	asJSON  bool
	noCache bool
}

// labelsCommand resolves the labels of layers at a zoom level, exactly as
// the map would draw them.
func (c *CLI) labelsCommand() *cobra.Command {
	var opts labelsOpts

	cmd := &cobra.Command{
		Use:   "labels <layer> [layer...]",
		Short: "Show which labels a layer gets at a zoom level",
		Long: `Resolve the labels of one or more layers.

Layers are catalog names, catalog URLs, local paths or URLs. Without --zoom
the view is fitted to the layers.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeLayers,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLabels(cmd, args, opts)
		},
	}

	cmd.Flags().Float64VarP(&opts.zoom, "zoom", "z", 0, "zoom level (0 fits the layers)")
	cmd.Flags().StringVar(&opts.center, "center", "", "view center as lon,lat")
	cmd.Flags().StringVar(&opts.size, "size", "", "map size as WIDTHxHEIGHT (default 1200x800)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the resolution as JSON")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runLabels(cmd *cobra.Command, args []string, lo labelsOpts) error {
	ctx := cmd.Context()
	cfg, err := c.config()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg.Server.Catalog)
	if err != nil {
		return err
	}
	center, err := parseCenter(lo.center)
	if err != nil {
		return err
	}
	width, height, err := parseSize(lo.size)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, lo.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	entries := make([]catalog.Entry, 0, len(args))
	for _, a := range args {
		entries = append(entries, layerEntry(cat, a))
	}
	labels := cfg.Labels
	opts := pipeline.Options{
		Layers: entries,
		Width:  width,
		Height: height,
		Center: center,
		Zoom:   lo.zoom,
		Labels: &labels,
		Keys:   cfg.PropKeys(),
	}
	res, err := runner.Prepare(ctx, opts)
	if err != nil {
		return err
	}

	if lo.asJSON {
		return writeJSON(os.Stdout, res.Labels)
	}
	printResolution(res.Labels)
	return nil
}

func printResolution(r label.Resolution) {
	printKeyValue("Zoom", fmt.Sprintf("%.2f", r.Zoom))
	printKeyValue("Font", fmt.Sprintf("%dpx", r.FontSize))
	printKeyValue("Spacing", fmt.Sprintf("%gpx", r.Spacing))
	printNewline()

	for _, l := range r.Layers {
		if !l.Visible && len(l.Lines) == 0 {
			printWarning("%s: hidden at this zoom", l.LayerID)
			continue
		}
		printSuccess("%s: %d labels, %d rejected", l.LayerID, len(l.Labels)+len(l.Lines), l.Rejected)
		for _, c := range l.Labels {
			printDetail("%-32s %8.1f %8.1f", c.Text, c.Anchor[0], c.Anchor[1])
		}
		for _, c := range l.Lines {
			printDetail("%-32s %8.1f %8.1f  (line)", c.Text, c.Anchor[0], c.Anchor[1])
		}
	}
}
