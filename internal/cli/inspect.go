package cli

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/institutoite/bolivia/pkg/errors"
	"github.com/institutoite/bolivia/pkg/geo"
)

// inspectCommand summarizes a layer, or lists the attributes of one of its
// features the way the map popup shows them.
func (c *CLI) inspectCommand() *cobra.Command {
	var asJSON, noCache bool

	cmd := &cobra.Command{
		Use:   "inspect <layer> [index]",
		Short: "Summarize a layer or show one feature's attributes",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
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

			l, err := runner.Loader.Load(ctx, layerEntry(cat, args[0]))
			if err != nil {
				return err
			}

			if len(args) == 1 {
				sum := geo.Summarize(l)
				if asJSON {
					return writeJSON(os.Stdout, sum)
				}
				printSummary(l)
				return nil
			}

			idx, err := strconv.Atoi(args[1])
			if err != nil || idx < 0 || idx >= len(l.Features) {
				return errors.New(errors.ErrCodeFeatureNotFound, "feature %s not in %s (%d features)", args[1], l.ID, len(l.Features))
			}
			keys := cfg.PropKeys()
			f := l.Features[idx]
			entries := keys.Popup(f.Properties)
			if asJSON {
				return writeJSON(os.Stdout, entries)
			}
			if name := keys.ExtractName(f.Properties); name != "" {
				printInfo("%s", StyleTitle.Render(name))
			}
			for _, e := range entries {
				printKeyValue(e.Label, e.Value)
			}
			if len(entries) == 0 {
				printDetail("no attributes")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func printSummary(l *geo.Layer) {
	sum := geo.Summarize(l)
	printKeyValue("Layer", l.ID)
	printKeyValue("Features", strconv.Itoa(sum.Features))
	printKeyValue("Points", strconv.Itoa(sum.Points))
	printKeyValue("Types", strings.Join(sum.Types, ", "))
}
