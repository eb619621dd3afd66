package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/omarluq/itemdesk/internal/config"
	"github.com/omarluq/itemdesk/internal/view"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the configuration file without starting the server.
Checks syntax, the backend URL, cookie names and listen address.`,
	RunE: runConfigValidate,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default config file",
	Long:  `Generate a default itemdesk configuration file at ~/.config/itemdesk/itemdesk.yaml`,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().StringP("output", "o", "", "output path (default: ~/.config/itemdesk/itemdesk.yaml)")
	configInitCmd.Flags().Bool("force", false, "overwrite existing config file")

	configCmd.AddCommand(configValidateCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig loads and validates the config selected for cmd, falling back
// to defaults when no file exists.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath(cmd)
	if path == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	path := configPath(cmd)
	if path == "" {
		view.Fail(out, "no config file found")
		return fmt.Errorf("no config file found (looked for ./%s and ~/.config/itemdesk/%s)", defaultConfigFile, defaultConfigFile)
	}

	if _, err := loadConfig(cmd); err != nil {
		view.Fail(out, "Config validation failed: "+err.Error())
		return err
	}

	view.OK(out, path+" is valid")
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to get force flag: %w", err)
	}

	if output == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		output = filepath.Join(home, ".config", "itemdesk", defaultConfigFile)
	}

	if _, err := os.Stat(output); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", output)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(output, []byte(config.DefaultTemplate), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	view.OK(out, "Config file created at "+output)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Set backend.base_url (or ITEMDESK_BACKEND_URL)")
	fmt.Fprintln(out, "  2. Validate with: itemdesk config validate")
	fmt.Fprintln(out, "  3. Log in: itemdesk login")
	fmt.Fprintln(out, "  4. Start the frontend: itemdesk serve")

	return nil
}
