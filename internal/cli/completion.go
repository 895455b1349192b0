package cli

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/institutoite/bolivia/pkg/render"
	"github.com/institutoite/bolivia/pkg/style"
)

// completionCommand prints a shell completion script. Besides commands and
// flags, the scripts complete catalog layer names for export and labels,
// and the values of --format and --mode.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for your shell.

Once loaded, TAB completes mapabo commands and flags, the catalog layers
accepted by "mapabo export" and "mapabo labels" (taken from server.catalog
in the configuration, or the built-in catalog), export formats for --format
and political modes for --mode.

Bash:
  $ source <(mapabo completion bash)

Zsh:
  $ mapabo completion zsh > "${fpath[1]}/_mapabo"

Fish:
  $ mapabo completion fish > ~/.config/fish/completions/mapabo.fish

PowerShell:
  PS> mapabo completion powershell | Out-String | Invoke-Expression

Start a new shell after installing the script.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}

// completeLayers offers the catalog entries not yet on the command line, by
// file name, with their group as description.
func (c *CLI) completeLayers(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := c.config()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	cat, err := loadCatalog(cfg.Server.Catalog)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, e := range cat.Entries {
		if slices.Contains(args, e.Name) || slices.Contains(args, e.URL) {
			continue
		}
		if strings.HasPrefix(e.Name, toComplete) {
			out = append(out, e.Name+"\t"+e.Group)
		}
	}
	// Paths and URLs outside the catalog are accepted too.
	return out, cobra.ShellCompDirectiveDefault
}

// completeFormats completes the last element of a comma-separated format list.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix, last := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix, last = toComplete[:i+1], toComplete[i+1:]
	}
	var out []string
	for _, f := range render.Formats {
		if strings.HasPrefix(string(f), last) && !strings.Contains(prefix, string(f)+",") {
			out = append(out, prefix+string(f))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func completeModes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(style.ModeCountry) + "\twhole country",
		string(style.ModeDepartment) + "\tone department",
		string(style.ModeProvince) + "\tprovinces of a department",
	}, cobra.ShellCompDirectiveNoFileComp
}
