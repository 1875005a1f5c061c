// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"comet-cli/internal/dotnet"
	"comet-cli/internal/files"
	"comet-cli/internal/installer"

	"github.com/spf13/cobra"
)

var (
	updateFromRelease bool
	updateNoBuild     bool
	updateRepo        string
	updateBranch      string

	updateCmd = &cobra.Command{
		Use:   "update [projectPath]",
		Short: "Re-install every installed component",
		Long: `Re-install every component currently present under addons/comet,
fetching fresh copies from the components repository. Equivalent to
running 'comet install --force' for each installed component.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd.Context(), projectPathArg(args, 0))
		},
	}
)

func init() {
	updateCmd.Flags().BoolVar(&updateFromRelease, "from-release", false, "fetch the latest release tarball instead of cloning")
	updateCmd.Flags().BoolVar(&updateNoBuild, "no-build", false, "skip the dotnet build after updating")
	updateCmd.Flags().StringVar(&updateRepo, "repo", "", "components repository as owner/name")
	updateCmd.Flags().StringVar(&updateBranch, "branch", "", "branch to clone")
}

func runUpdate(ctx context.Context, projectPath string) error {
	installed, err := files.InstalledComponents(projectPath)
	if err != nil {
		return fmt.Errorf("enumerating installed components: %w", err)
	}
	if len(installed) == 0 {
		fmt.Println(SubtitleStyle.Render("No components installed, nothing to update."))
		return nil
	}

	fetcher, err := newFetcher(updateRepo, updateBranch, updateFromRelease)
	if err != nil {
		return err
	}

	tool := dotnet.New(newLogger("dotnet"))
	inst := installer.New(fetcher, tool, newLogger("install"))

	combined := &installer.Report{}
	for _, name := range installed {
		fmt.Printf("%s Updating %s...\n", ComponentStyle.Render("→"), ComponentStyle.Render(name))

		report, err := inst.Install(ctx, installer.Request{
			Component:   name,
			ProjectPath: projectPath,
			Force:       true,
		})
		if err != nil {
			return installError(name, err)
		}

		combined.Installed = append(combined.Installed, report.Installed...)
		combined.Skipped = append(combined.Skipped, report.Skipped...)
		combined.PackageWarnings = append(combined.PackageWarnings, report.PackageWarnings...)
	}

	if !updateNoBuild {
		runBuild(ctx, tool, projectPath)
	}

	printInstallSummary(combined)
	return nil
}
