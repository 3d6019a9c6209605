package cmd

import (
	"fmt"

	"github.com/fitz/triage/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration settings",
	Long:  `View and modify configuration settings for Triage.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the .env file (local or global).

Use --global flag to set in the global configuration (~/.triage/config).
Otherwise, sets in the local .env file.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key, value := args[0], args[1]
		global, _ := cmd.Flags().GetBool("global")

		if !config.IsKnownKey(key) {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is not a recognized key\n", key)
		}

		if global {
			if err := config.SetGlobalConfig(key, value); err != nil {
				exitWithError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s (global)\n", key)
			return
		}

		dir, err := configDir(cmd)
		if err != nil {
			exitWithError(err)
		}
		if err := config.Set(dir, key, value); err != nil {
			exitWithError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s (local)\n", key)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Long:  `Retrieve a configuration value from the local .env file, or the global one with --global.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		global, _ := cmd.Flags().GetBool("global")

		var (
			value string
			err   error
		)
		if global {
			value, err = config.GetGlobalConfig(key)
		} else {
			var dir string
			dir, err = configDir(cmd)
			if err == nil {
				value, err = config.Get(dir, key)
			}
		}
		if err != nil {
			exitWithError(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, value)
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configuration values",
	Long: `Display the effective configuration after merging the local .env file,
the global config, environment variables and defaults.

With --global, display only the entries stored in the global config file.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		global, _ := cmd.Flags().GetBool("global")
		out := cmd.OutOrStdout()

		if global {
			entries, err := config.ListGlobalConfig()
			if err != nil {
				exitWithError(err)
			}
			fmt.Fprintf(out, "Global configuration (%s):\n", config.GetGlobalConfigPath())
			for _, e := range entries {
				fmt.Fprintf(out, "  %s: %s\n", e.Key, displayValue(e.Key, e.Value))
			}
			return
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			exitWithError(err)
		}

		fmt.Fprintln(out, "Configuration:")
		for _, key := range config.Keys {
			fmt.Fprintf(out, "  %s: %s\n", key, displayValue(key, effectiveValue(cfg, key)))
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)

	configSetCmd.Flags().Bool("global", false, "Set in global config instead of local")
	configGetCmd.Flags().Bool("global", false, "Read from global config instead of local")
	configListCmd.Flags().Bool("global", false, "List the global config file only")
}

func effectiveValue(cfg *config.Config, key string) string {
	switch key {
	case config.KeyNeo4jURI:
		return cfg.Neo4jURI
	case config.KeyNeo4jUsername:
		return cfg.Neo4jUsername
	case config.KeyNeo4jPassword:
		return cfg.Neo4jPassword
	case config.KeyNeo4jDatabase:
		return cfg.Neo4jDatabase
	case config.KeyStrategy:
		return cfg.Strategy
	case config.KeyLogLevel:
		return cfg.LogLevel
	case config.KeyNeo4jImage:
		return cfg.Neo4jImage
	case config.KeyContainerName:
		return cfg.ContainerName
	case config.KeyBackend:
		return cfg.Backend
	case config.KeyPGHost:
		return cfg.PGHost
	case config.KeyPGPort:
		return cfg.PGPort
	case config.KeyPGUser:
		return cfg.PGUser
	case config.KeyPGPassword:
		return cfg.PGPassword
	case config.KeyPGDatabase:
		return cfg.PGDatabase
	}
	return ""
}

func displayValue(key, value string) string {
	if key == config.KeyNeo4jPassword || key == config.KeyPGPassword {
		return maskPassword(value)
	}
	if value == "" {
		return "(not set)"
	}
	return value
}

// maskPassword masks a password string for display.
func maskPassword(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
