package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/oxideapps/appsupervisor/internal/config"
	"github.com/spf13/cobra"
)

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate daemon and apps configuration",
	Long:  `Load the daemon config and the apps/procs tree and report any errors or warnings without starting anything`,
	Run:   runCheckConfig,
}

func init() {
	checkConfigCmd.Flags().Bool("strict", false, "Fail on warnings (not just errors)")
	checkConfigCmd.Flags().Bool("json", false, "Output validation results as JSON")
	checkConfigCmd.Flags().Bool("quiet", false, "Show only summary (no detailed report)")
}

func runCheckConfig(cmd *cobra.Command, args []string) {
	strict, _ := cmd.Flags().GetBool("strict")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	quiet, _ := cmd.Flags().GetBool("quiet")

	if cfgFile != "" {
		os.Setenv(config.DaemonConfigEnv, cfgFile)
	}

	cfg, err := config.LoadDaemonConfig()
	if err != nil {
		reportLoadFailure(jsonOutput, "daemon config", err)
		os.Exit(1)
	}

	result, err := cfg.ValidateComprehensive()
	if err != nil {
		printValidation(result, jsonOutput, quiet, cfg)
		os.Exit(1)
	}

	if _, loadErr := config.LoadFile(cfg.AppsConfigPath); loadErr != nil {
		reportLoadFailure(jsonOutput, "apps config", loadErr)
		os.Exit(1)
	}

	printValidation(result, jsonOutput, quiet, cfg)

	if strict && result.HasWarnings() {
		if !jsonOutput {
			fmt.Println("\nvalidation failed in strict mode (warnings present)")
		}
		os.Exit(1)
	}
}

func reportLoadFailure(jsonOutput bool, what string, err error) {
	if jsonOutput {
		fmt.Fprintf(os.Stderr, `{"error":"%s load failed: %v"}`+"\n", what, err)
		return
	}
	fmt.Fprintf(os.Stderr, "%s load failed: %v\n", what, err)
}

func printValidation(result *config.ValidationResult, jsonOutput, quiet bool, cfg *config.DaemonConfig) {
	if jsonOutput {
		data := config.FormatValidationJSON(result)
		data["apps_config_path"] = cfg.AppsConfigPath
		data["version"] = cfg.Version
		out, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(out))
		return
	}

	if quiet {
		if result.TotalIssues() == 0 {
			fmt.Println("configuration is valid")
		} else {
			fmt.Printf("configuration is valid (with issues): %s\n", config.FormatValidationSummary(result))
		}
		return
	}

	if result.TotalIssues() > 0 {
		fmt.Print(config.FormatValidationReport(result))
	}

	fmt.Printf("\nconfiguration summary:\n")
	fmt.Printf("  apps config: %s\n", cfg.AppsConfigPath)
	fmt.Printf("  version: %s\n", cfg.Version)
	fmt.Printf("  log level: %s\n", cfg.Logging.Level)

	if result.TotalIssues() == 0 {
		fmt.Println("\nconfiguration ready for use")
	} else {
		fmt.Println("\nconfiguration is valid but has warnings/suggestions")
	}
}
