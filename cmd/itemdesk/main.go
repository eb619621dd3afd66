// Package main is the entry point for itemdesk.
package main

import (
	"context"
	"os"
	"path/filepath"

	"charm.land/fang/v2"
	"github.com/spf13/cobra"
)

const (
	defaultConfigFile = "itemdesk.yaml"
	configFlag        = "config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "itemdesk",
	Short: "Client and web frontend for the item backend",
	Long: `itemdesk talks to a session-authenticated item backend. It can log in,
list and edit items from the command line, and serve a web frontend that
renders the same data with the visitor's session.`,
	SilenceUsage: true,
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, configFlag, "",
		"config file path (default: ./"+defaultConfigFile+" or ~/.config/itemdesk/"+defaultConfigFile+")")
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}

// configPath returns the --config value of cmd, or the first config file
// found in the default locations, or "" to run on defaults.
func configPath(cmd *cobra.Command) string {
	if cmd != nil {
		if p, err := cmd.Flags().GetString(configFlag); err == nil && p != "" {
			return p
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return findConfigInWithHome(".", home)
}

// findConfigInWithHome looks for the config file in workDir, then in
// home/.config/itemdesk. It returns "" when neither exists.
func findConfigInWithHome(workDir, home string) string {
	p := filepath.Join(workDir, defaultConfigFile)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	if home != "" {
		p = filepath.Join(home, ".config", "itemdesk", defaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
