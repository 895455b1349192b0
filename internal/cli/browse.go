package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// browseCommand picks a catalog layer interactively and summarizes it.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [dir|index.json]",
		Short: "Pick a catalog layer interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, err := c.catalogFromArgs(args)
			if err != nil {
				return err
			}
			if len(cat.Entries) == 0 {
				printWarning("The catalog is empty")
				return nil
			}

			final, err := tea.NewProgram(NewCatalogListModel(cat), tea.WithContext(ctx)).Run()
			if err != nil {
				return err
			}
			m := final.(CatalogListModel)
			if m.Selected == nil {
				return nil
			}

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			spin := newSpinnerWithContext(ctx, "Loading "+m.Selected.Title())
			spin.Start()
			l, err := runner.Loader.Load(ctx, *m.Selected)
			if err != nil {
				spin.StopWithError(err.Error())
				return err
			}
			spin.StopWithSuccess(m.Selected.Title())
			printSummary(l)
			printNewline()
			printNextStep("Export it", "mapabo export "+m.Selected.URL)
			return nil
		},
	}
}
