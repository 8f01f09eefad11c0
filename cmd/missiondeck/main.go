package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "missiondeck",
	Short: "missiondeck - multi-agent mission planning console",
	Long: `missiondeck is a terminal console for multi-agent mission planning:
coalitions, tasks with temporal-logic goals, a live scene view, and a task
dependency graph, backed by a local simulation or a remote daemon.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr    string
	configPath string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:8930", "Daemon API address")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Directory containing config.yaml")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
