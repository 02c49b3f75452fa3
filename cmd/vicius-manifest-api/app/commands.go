// Package app provides the entry point for the Vicius manifest API application.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/vicius-manifest-server/internal/config"
	"github.com/stacklok/vicius-manifest-server/internal/versions"
)

// NewRootCmd creates a new root command for the manifest API.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "vicius-manifest-api",
		DisableAutoGenTag: true,
		Short:             "Vicius update manifest server",
		Long: `Vicius update manifest server serves updates.json documents to the Vicius
updater, built on demand from GitHub releases or loaded from static files.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format)")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		slog.Error("Error binding config flag", "error", err)
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newProductsCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}

			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "vicius-manifest-api "+info.String())
			return err
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

// loadConfig loads the configuration named by --config or VICIUS_CONFIG
func loadConfig() (*config.Config, string, error) {
	configPath := viper.GetString("config")
	if configPath == "" {
		return nil, "", fmt.Errorf("a configuration file is required (--config or %s_CONFIG)", config.EnvPrefix)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, configPath, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, configPath, nil
}
