// Copyright 2025 Certen Protocol

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/twinexyz/twarb/pkg/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "twarb",
	Short: "Twine arbitrager: relays aggregated proofs from provers to L1 destinations",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "config file path")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteDBCmd)
	rootCmd.AddCommand(manualRelayCmd)
	rootCmd.AddCommand(publicValuesCmd)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./twine/arbitrager/config.yaml"
	}
	return filepath.Join(home, ".twine", "arbitrager", "config.yaml")
}

func loadAndValidate(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
