// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"comet-cli/internal/toolcheck"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [projectPath]",
	Short: "Verify the environment is ready for installs",
	Long: `Verify that git and the dotnet SDK are installed at usable versions
and, when a project path is given, that the project contains a .csproj
descriptor. Exits non-zero when any check fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectPath := ""
		if len(args) > 0 {
			projectPath = args[0]
		}
		return runCheck(cmd.Context(), projectPath)
	},
}

func runCheck(ctx context.Context, projectPath string) error {
	result := toolcheck.NewChecker().Run(ctx, projectPath)

	fmt.Println(TitleStyle.Render("Environment check"))
	for _, c := range result.Checks {
		switch {
		case c.OK && c.Version != "":
			fmt.Printf("  %s %s %s\n", SuccessStyle.Render("✓"), c.Name, SubtitleStyle.Render(c.Version))
		case c.OK:
			fmt.Printf("  %s %s %s\n", SuccessStyle.Render("✓"), c.Name, SubtitleStyle.Render(c.Detail))
		default:
			fmt.Printf("  %s %s: %s\n", ErrorStyle.Render("✗"), c.Name, c.Detail)
		}
	}

	if !result.OK() {
		return &ExitError{Code: 1, Err: fmt.Errorf("environment check failed")}
	}

	fmt.Println()
	fmt.Println(SuccessStyle.Render("All checks passed."))
	return nil
}
