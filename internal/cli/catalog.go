package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/institutoite/bolivia/pkg/catalog"
)

// catalogCommand lists the catalog grouped by theme.
func (c *CLI) catalogCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "catalog [dir|index.json]",
		Short: "List the layer catalog",
		Long: `List the layer catalog grouped by theme.

Without an argument the configured catalog (server.catalog) is used, or the
built-in one. A directory is scanned for .geojson and .json files; its
sub-directories become groups.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.catalogFromArgs(args)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(os.Stdout, cat.Groups())
			}
			printCatalog(cat)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the grouped catalog as JSON")

	return cmd
}

// catalogFromArgs loads the catalog named by the first argument, falling back
// to the configured one.
func (c *CLI) catalogFromArgs(args []string) (*catalog.Catalog, error) {
	if len(args) > 0 {
		return loadCatalog(args[0])
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return loadCatalog(cfg.Server.Catalog)
}

func printCatalog(cat *catalog.Catalog) {
	groups := cat.Groups()
	var rows [][]string
	for _, g := range groups {
		for _, e := range g.Entries {
			rows = append(rows, []string{g.Name, e.Title(), e.URL})
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Group", "Layer", "Source").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleHighlight
			case col == 2:
				return StyleDim
			}
			return StyleValue
		})

	fmt.Println(t.Render())
	printDetail("%d layers in %d groups", len(cat.Entries), len(groups))
}
