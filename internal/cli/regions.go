package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/institutoite/bolivia/pkg/catalog"
	"github.com/institutoite/bolivia/pkg/pipeline"
	"github.com/institutoite/bolivia/pkg/region"
)

type regionJSON struct {
	region.Node
	Provinces []region.Node `json:"provinces"`
}

// regionsCommand builds the department/province hierarchy from two layers.
func (c *CLI) regionsCommand() *cobra.Command {
	var asJSON, noCache bool

	cmd := &cobra.Command{
		Use:   "regions <adm1> <adm3>",
		Short: "Show the department and province hierarchy",
		Long: `Build the administrative hierarchy from a department layer (ADM1) and a
province layer (ADM3). Each province belongs to the department containing
the center of its bounding box; provinces without one are reported.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(c.Logger)
			base, err := pipeline.LoadLayers(ctx, runner.Loader, []catalog.Entry{
				{Name: "adm1", URL: args[0]},
				{Name: "adm3", URL: args[1]},
			})
			if err != nil {
				return err
			}
			h := region.Build(base[0], base[1], cfg.PropKeys())
			prog.done("Built hierarchy")

			depts := h.Nodes(region.ADM1)
			if asJSON {
				out := make([]regionJSON, 0, len(depts))
				for _, d := range depts {
					out = append(out, regionJSON{Node: d, Provinces: h.Children(d.ID)})
				}
				return writeJSON(os.Stdout, out)
			}

			for _, d := range depts {
				children := h.Children(d.ID)
				printSuccess("%s %s", StyleHighlight.Render(d.Name), StyleDim.Render("("+d.ID+")"))
				for _, p := range children {
					printDetail("%s (%s)", p.Name, p.ID)
				}
			}
			orphans := h.Orphans()
			for _, o := range orphans {
				printWarning("province %s (%s) has no department", o.Name, o.ID)
			}
			printNewline()
			printRegionStats(len(depts), len(h.Nodes(region.ADM3)), len(orphans))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the hierarchy as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
