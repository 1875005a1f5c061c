// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"comet-cli/internal/dotnet"
	"comet-cli/internal/files"
	"comet-cli/internal/installer"
	"comet-cli/internal/issue"
	"comet-cli/internal/repo"
	"comet-cli/internal/version"
	"comet-cli/pkg/manifest"

	"github.com/spf13/cobra"
)

var (
	installForce       bool
	installSkipDeps    bool
	installFromRelease bool
	installExamples    bool
	installNoBuild     bool
	installRepo        string
	installBranch      string

	installCmd = &cobra.Command{
		Use:   "install <component> [projectPath]",
		Short: "Install a component into a project",
		Long: `Install a component and its dependencies into a project.

The component is fetched from the components repository (a shallow git
clone of the configured branch, or the latest release tarball with
--from-release). Declared component dependencies are installed first,
depth-first; NuGet package dependencies are added to the project's
.csproj; files are copied to addons/comet/<component>.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), args[0], projectPathArg(args, 1))
		},
	}
)

func init() {
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "overwrite components that are already installed")
	installCmd.Flags().BoolVar(&installSkipDeps, "skip-deps", false, "install only the named component, no dependencies")
	installCmd.Flags().BoolVar(&installFromRelease, "from-release", false, "fetch the latest release tarball instead of cloning")
	installCmd.Flags().BoolVar(&installExamples, "example", false, "also copy the component's example tree")
	installCmd.Flags().BoolVar(&installNoBuild, "no-build", false, "skip the dotnet build after installing")
	installCmd.Flags().StringVar(&installRepo, "repo", "", "components repository as owner/name")
	installCmd.Flags().StringVar(&installBranch, "branch", "", "branch to clone")
}

// newRepoClient builds the GitHub client from config, with per-command flag
// overrides.
func newRepoClient(repoFlag string) (*repo.Client, error) {
	slug := appCfg.Repo
	if repoFlag != "" {
		slug = repoFlag
	}

	owner, name, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("invalid repository %q: expected owner/name", slug)
	}

	return repo.NewClient(
		repo.WithRepo(owner, name),
		repo.WithTimeout(networkTimeout()),
		repo.WithUserAgent("comet/"+Version),
	), nil
}

// newFetcher builds the component fetcher from config, with per-command flag
// overrides.
func newFetcher(repoFlag, branchFlag string, fromRelease bool) (*repo.Fetcher, error) {
	client, err := newRepoClient(repoFlag)
	if err != nil {
		return nil, err
	}

	fetcher := repo.NewFetcher(client, newLogger("fetch"))
	fetcher.Branch = appCfg.Branch
	if branchFlag != "" {
		fetcher.Branch = branchFlag
	}
	fetcher.FromRelease = appCfg.FromRelease || fromRelease

	return fetcher, nil
}

func runInstall(ctx context.Context, component, projectPath string) error {
	fetcher, err := newFetcher(installRepo, installBranch, installFromRelease)
	if err != nil {
		return err
	}

	tool := dotnet.New(newLogger("dotnet"))
	inst := installer.New(fetcher, tool, newLogger("install"))

	fmt.Printf("%s Installing %s...\n", ComponentStyle.Render("→"), ComponentStyle.Render(component))

	report, err := inst.Install(ctx, installer.Request{
		Component:        component,
		ProjectPath:      projectPath,
		Force:            installForce,
		SkipDependencies: installSkipDeps,
		InstallExamples:  installExamples,
	})
	if err != nil {
		return installError(component, err)
	}

	if report.Root != nil {
		warnRuntimeCompat(projectPath, report.Root)
	}

	if !installNoBuild {
		runBuild(ctx, tool, projectPath)
	}

	printInstallSummary(report)
	return nil
}

// installError decorates installer failures with actionable suggestions.
func installError(component string, err error) error {
	ectx := issue.NewErrorContext().
		WithOperation("install component").
		WithResource(component).
		Wrap(err)

	switch {
	case errors.Is(err, files.ErrAlreadyExists):
		ectx.WithSuggestion("Use --force to overwrite the existing installation")
	case errors.Is(err, installer.ErrManifestRequired):
		ectx.WithSuggestion("Check that the component publishes a " + manifest.FileName)
	default:
		var notFound *repo.ComponentNotFoundError
		if errors.As(err, &notFound) {
			ectx.WithSuggestion("Run 'comet list' to see available components")
			ectx.WithSuggestion("Check the component name's capitalization")
		}
		var cloneErr *repo.CloneError
		if errors.As(err, &cloneErr) {
			ectx.WithSuggestion("Check that the branch exists (--branch)")
			ectx.WithSuggestion("Run 'comet check' to verify git is installed")
		}
	}

	return ectx.BuildError()
}

// runBuild triggers dotnet build. Build failures are reported as warnings;
// the installed files are already in place and usable in the editor.
func runBuild(ctx context.Context, tool *dotnet.Tool, projectPath string) {
	fmt.Printf("%s Building project...\n", ComponentStyle.Render("→"))
	if err := tool.Build(ctx, projectPath); err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}
}

// printInstallSummary renders the structured install report.
func printInstallSummary(report *installer.Report) {
	fmt.Println()
	fmt.Println(TitleStyle.Render("Install summary"))

	for _, name := range report.Installed {
		fmt.Printf("  %s %s\n", SuccessStyle.Render("✓"), name)
	}
	for _, name := range report.Skipped {
		fmt.Printf("  %s %s %s\n", SubtitleStyle.Render("-"), name, SubtitleStyle.Render("(already installed)"))
	}
	if report.ExamplesDir != "" {
		fmt.Printf("  %s examples in %s\n", SuccessStyle.Render("✓"), report.ExamplesDir)
	}
	for _, w := range report.PackageWarnings {
		fmt.Printf("  %s %s\n", WarningStyle.Render("!"), w)
	}
}

// targetFrameworkPattern pulls the numeric framework version out of a
// csproj TargetFramework value such as "net6.0".
var targetFrameworkPattern = regexp.MustCompile(`<TargetFramework>\s*net(\d+\.\d+)`)

// warnRuntimeCompat compares the component's declared runtime requirement
// against the project's pinned target framework and warns on a mismatch.
// Best effort only: any parse failure stays silent.
func warnRuntimeCompat(projectPath string, man *manifest.Manifest) {
	if man.RuntimeVersion == "" {
		return
	}

	projectFile, err := dotnet.FindProjectFile(projectPath)
	if err != nil {
		return
	}
	data, err := os.ReadFile(projectFile)
	if err != nil {
		return
	}

	m := targetFrameworkPattern.FindSubmatch(data)
	if m == nil {
		return
	}

	pinned := string(m[1])
	if !version.AtLeast(pinned, man.RuntimeVersion) {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+fmt.Sprintf(
			"component %s wants runtime %s but the project targets net%s",
			man.Name, man.RuntimeVersion, pinned))
	}
}
