package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "appsupervisord",
	Short: "Application supervisor daemon",
	Long: `appsupervisord supervises a tree of applications and their processes:
starting them in declared order, restarting or escalating on fault or missed
watchdog heartbeat, and enforcing the sandbox, resource-limit, and access
control each app is configured with.`,
	Run: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "daemon config file path")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(checkConfigCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
