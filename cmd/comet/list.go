// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"comet-cli/internal/repo"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	listRepo   string
	listBranch string

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List available components",
		Long: `List the components available in the components repository.

Names come from the repository's Component/ directory listing. When the
listing is unavailable, the repository's markdown component index is
rendered instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context())
		},
	}
)

func init() {
	listCmd.Flags().StringVar(&listRepo, "repo", "", "components repository as owner/name")
	listCmd.Flags().StringVar(&listBranch, "branch", "", "branch to list")
}

func runList(ctx context.Context) error {
	client, err := newRepoClient(listRepo)
	if err != nil {
		return err
	}

	branch := appCfg.Branch
	if listBranch != "" {
		branch = listBranch
	}

	names, err := client.ListComponents(ctx, branch)
	if err != nil {
		newLogger("list").Debug("component listing failed, falling back to index", "err", err)
		return renderComponentIndex(ctx, client)
	}

	if len(names) == 0 {
		fmt.Println(SubtitleStyle.Render("No components found in " + client.Slug() + "."))
		return nil
	}

	fmt.Println(TitleStyle.Render("Available components") + SubtitleStyle.Render(" ("+client.Slug()+")"))
	for _, name := range names {
		fmt.Printf("  %s\n", ComponentStyle.Render(name))
	}
	fmt.Println()
	fmt.Println(SubtitleStyle.Render("Install with: comet install <component>"))

	return nil
}

// renderComponentIndex fetches the repository's markdown index and renders
// it for the terminal.
func renderComponentIndex(ctx context.Context, client *repo.Client) error {
	index, err := client.ComponentIndex(ctx)
	if err != nil {
		return fmt.Errorf("listing components: %w", err)
	}

	rendered, err := glamour.Render(index, "dark")
	if err != nil {
		// Raw markdown still beats nothing.
		fmt.Print(index)
		return nil
	}

	fmt.Print(rendered)
	return nil
}
