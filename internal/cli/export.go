package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/institutoite/bolivia/pkg/catalog"
	"github.com/institutoite/bolivia/pkg/config"
	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/pipeline"
	"github.com/institutoite/bolivia/pkg/render"
	"github.com/institutoite/bolivia/pkg/style"
)

// defaultOutput is the base name of exported files.
const defaultOutput = "mapa"

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	output    string
	formats   string
	size      string
	center    string
	zoom      float64
	scale     float64
	maxSide   int
	highlight string

	adm1           string
	adm3           string
	capitals       string
	municipalities string
	noPolitical    bool
	mode           string
	department     string
	province       string

	noCache bool
	refresh bool
}

// exportCommand composes layers and the political map and writes PNG, PDF
// or SVG files.
func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export [layer...]",
		Short: "Export a composed map to PNG, PDF or SVG",
		Long: `Compose catalog layers over the political map and export the result.

The political base comes from --adm1/--adm3, or server.adm1/server.adm3 in
the configuration. Pick what it shows with --mode, --department and
--province. Catalog layers are given as arguments.

With several formats, or an --output without extension, files are named
<output>.<format>.`,
		Example: `  mapabo export geo/hidrografia/rios.geojson --adm1 adm1.geojson --adm3 adm3.geojson -f png,svg
  mapabo export --department lp --province murillo -o murillo.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file or base path (default \"mapa\")")
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s): png, pdf, svg (comma-separated)")
	f.StringVar(&opts.size, "size", "", "map size as WIDTHxHEIGHT")
	f.StringVar(&opts.center, "center", "", "view center as lon,lat")
	f.Float64VarP(&opts.zoom, "zoom", "z", 0, "zoom level (0 fits the content)")
	f.Float64Var(&opts.scale, "scale", 0, "raster scale factor")
	f.IntVar(&opts.maxSide, "max-side", 0, "cap on the longest raster side in pixels")
	f.StringVar(&opts.highlight, "highlight", "", "catalog layer to highlight")
	f.StringVar(&opts.adm1, "adm1", "", "department layer of the political map")
	f.StringVar(&opts.adm3, "adm3", "", "province layer of the political map")
	f.StringVar(&opts.capitals, "capitals", "", "capitals overlay")
	f.StringVar(&opts.municipalities, "municipalities", "", "municipalities overlay")
	f.BoolVar(&opts.noPolitical, "no-political", false, "ignore the configured political map")
	f.StringVar(&opts.mode, "mode", "", "political mode: country, department, province")
	f.StringVar(&opts.department, "department", "", "department id to select")
	f.StringVar(&opts.province, "province", "", "province id to select")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	f.BoolVar(&opts.refresh, "refresh", false, "re-render even when the export is cached")

	cmd.ValidArgsFunction = c.completeLayers
	cmd.RegisterFlagCompletionFunc("format", completeFormats)
	cmd.RegisterFlagCompletionFunc("mode", completeModes)
	cmd.RegisterFlagCompletionFunc("highlight", c.completeLayers)

	return cmd
}

// pipelineOptions merges flags over the configuration.
func (eo exportOpts) pipelineOptions(cfg *config.Config, cat *catalog.Catalog, args []string) (pipeline.Options, error) {
	center, err := parseCenter(eo.center)
	if err != nil {
		return pipeline.Options{}, err
	}
	width, height, err := parseSize(eo.size)
	if err != nil {
		return pipeline.Options{}, err
	}
	ex := cfg.Export
	if width == 0 {
		width, height = ex.Width, ex.Height
	}

	opts := pipeline.Options{
		Width:      width,
		Height:     height,
		Center:     center,
		Zoom:       eo.zoom,
		Formats:    parseFormats(eo.formats),
		Scale:      eo.scale,
		MaxSide:    eo.maxSide,
		Refresh:    eo.refresh,
		Department: eo.department,
		Province:   eo.province,
		Keys:       cfg.PropKeys(),
	}
	if len(opts.Formats) == 0 {
		opts.Formats = append([]string(nil), ex.Formats...)
	}
	if opts.Scale == 0 {
		opts.Scale = ex.Scale
	}
	if opts.MaxSide == 0 {
		opts.MaxSide = ex.MaxSide
	}
	labels, params, halo := cfg.Labels, cfg.Style, cfg.Halo
	opts.Labels, opts.Params, opts.Halo = &labels, &params, &halo

	for _, a := range args {
		opts.Layers = append(opts.Layers, layerEntry(cat, a))
	}
	if eo.highlight != "" {
		opts.Highlight = layerEntry(cat, eo.highlight).URL
	}

	if eo.mode != "" {
		m, err := style.ParseMode(eo.mode)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.Mode = m
	}
	if !eo.noPolitical {
		sc := cfg.Server
		opts.ADM1 = firstNonEmpty(eo.adm1, sc.ADM1)
		opts.ADM3 = firstNonEmpty(eo.adm3, sc.ADM3)
		opts.Capitals = firstNonEmpty(eo.capitals, sc.Capitals)
		opts.Municipalities = firstNonEmpty(eo.municipalities, sc.Municipalities)
	}
	return opts, nil
}

func (c *CLI) runExport(ctx context.Context, args []string, eo exportOpts) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg.Server.Catalog)
	if err != nil {
		return err
	}
	opts, err := eo.pipelineOptions(cfg, cat, args)
	if err != nil {
		return err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	paths, err := outputPaths(eo.output, opts.Formats)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, eo.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spin := newSpinnerWithContext(ctx, "Composing map")
	spin.Start()
	res, err := runner.Execute(ctx, opts)
	spin.Stop()
	if err != nil {
		if spin.Cancelled() {
			return ctx.Err()
		}
		return err
	}

	formats := make([]string, 0, len(res.Artifacts))
	for f := range res.Artifacts {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	for _, f := range formats {
		if err := writeArtifact(paths[f], res.Artifacts[f]); err != nil {
			return err
		}
	}
	prog.done(fmt.Sprintf("Exported %d files", len(formats)))

	printSuccess("Map exported")
	for _, f := range formats {
		if paths[f] != "-" {
			printFile(paths[f])
		}
	}
	printStats(res.Stats, res.CacheInfo.RenderCacheHit)
	if res.Political != nil {
		printDetail("%s", res.Political.Trail())
	}
	return nil
}

// outputPaths names the file of each format. A single format with an
// extension in output (or "-" for stdout) is used as is.
func outputPaths(output string, formats []string) (map[string]string, error) {
	paths := make(map[string]string, len(formats))
	if output == "-" {
		if len(formats) != 1 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "stdout output needs exactly one format")
		}
		paths[formats[0]] = "-"
		return paths, nil
	}
	base := output
	if base == "" {
		base = defaultOutput
	}
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	if _, err := render.ParseFormat(ext); ext != "" && err == nil {
		if len(formats) == 1 && strings.EqualFold(ext, formats[0]) {
			paths[formats[0]] = base
			return paths, nil
		}
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths, nil
}

func writeArtifact(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
