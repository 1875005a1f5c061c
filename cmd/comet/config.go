// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"comet-cli/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage comet configuration",
	Long: `Manage comet configuration.

Configuration is stored in:
  - Linux: ~/.config/comet/config.toml
  - macOS: ~/Library/Application Support/comet/config.toml
  - Windows: %APPDATA%\comet\config.toml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfigFile()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath()
		},
	})
}

func showConfig() error {
	cfg, resolvedPath, err := config.Load(config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return err
	}

	keyStyle := ComponentStyle
	valueStyle := SuccessStyle

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	if resolvedPath != "" {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), resolvedPath)
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Println()

	fmt.Printf("%s: %s\n", keyStyle.Render("repo"), valueStyle.Render(cfg.Repo))
	fmt.Printf("%s: %s\n", keyStyle.Render("branch"), valueStyle.Render(cfg.Branch))
	fmt.Printf("%s: %s\n", keyStyle.Render("from_release"), valueStyle.Render(fmt.Sprintf("%v", cfg.FromRelease)))
	fmt.Printf("%s: %s\n", keyStyle.Render("timeout_seconds"), valueStyle.Render(fmt.Sprintf("%d", cfg.TimeoutSeconds)))
	fmt.Printf("%s: %s\n", keyStyle.Render("verbose"), valueStyle.Render(fmt.Sprintf("%v", cfg.Verbose)))

	return nil
}

func initConfigFile() error {
	path, err := config.CreateDefault("")
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Printf("%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Printf("Config directory: %s\n", cfgDir)
	fmt.Printf("Config file: %s\n", filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))

	return nil
}
