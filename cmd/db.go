package cmd

import (
	"fmt"
	"time"

	"github.com/fitz/triage/internal/docker"
	"github.com/spf13/cobra"
)

const readyTimeout = 60 * time.Second

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the local Neo4j container",
	Long: `Create, start, stop and inspect a local Neo4j container through the
Docker CLI. The container uses the configured credentials, image
(NEO4J_IMAGE), name (TRIAGE_CONTAINER_NAME) and the port from NEO4J_URI.`,
}

var dbUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Create or start the Neo4j container and wait until it is ready",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			exitWithError(err)
		}
		container := cfg.Container()
		out := cmd.OutOrStdout()
		m := docker.NewManager(nil)

		prior, err := m.Ensure(cmd.Context(), container)
		if err != nil {
			exitWithError(fmt.Errorf("failed to ensure Neo4j container: %w", err))
		}

		switch prior {
		case docker.StateRunning:
			fmt.Fprintf(out, "✓ Neo4j container '%s' is already running\n", container.Name)
			return
		case docker.StateMissing:
			fmt.Fprintf(out, "✓ Created Neo4j container '%s'\n", container.Name)
		default:
			fmt.Fprintf(out, "✓ Started Neo4j container '%s'\n", container.Name)
		}

		fmt.Fprintln(out, "  Waiting for Neo4j to be ready...")
		if err := m.WaitReady(cmd.Context(), container.Name, readyTimeout); err != nil {
			exitWithError(err)
		}
		fmt.Fprintln(out, "  ✓ Neo4j is ready")
	},
}

var dbDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop the Neo4j container",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		remove, _ := cmd.Flags().GetBool("rm")

		cfg, err := loadConfig(cmd)
		if err != nil {
			exitWithError(err)
		}
		m := docker.NewManager(nil)

		state, err := m.Status(cmd.Context(), cfg.ContainerName)
		if err != nil {
			exitWithError(err)
		}
		if state == docker.StateMissing {
			fmt.Fprintf(cmd.OutOrStdout(), "Neo4j container '%s' does not exist\n", cfg.ContainerName)
			return
		}
		if err := m.Stop(cmd.Context(), cfg.ContainerName, remove); err != nil {
			exitWithError(err)
		}
		verb := "Stopped"
		if remove {
			verb = "Removed"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s Neo4j container '%s'\n", verb, cfg.ContainerName)
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the Neo4j container state",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			exitWithError(err)
		}
		m := docker.NewManager(nil)
		if !m.Available(cmd.Context()) {
			exitWithError(docker.ErrDockerUnavailable)
		}

		state, err := m.Status(cmd.Context(), cfg.ContainerName)
		if err != nil {
			exitWithError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", cfg.ContainerName, state)
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbUpCmd)
	dbCmd.AddCommand(dbDownCmd)
	dbCmd.AddCommand(dbStatusCmd)

	dbDownCmd.Flags().Bool("rm", false, "Remove the container after stopping it")
}
