package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finecision/finecision/internal/config"
)

// settings merges finecision.yaml, FINECISION_* variables and bound flags.
var settings = config.New()

var rootCmd = &cobra.Command{
	Use:   "finecision",
	Short: "Finecision decides credit applications with workflow graphs",
	Long: `Finecision evaluates credit-decision workflows: a trigger, conditions,
a weighted credit score and actions that approve, reject or send an
applicant to review.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./finecision.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")

	_ = settings.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = settings.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// loadConfig reads the configuration named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(settings, path)
}

// addVariableFlags registers the flags that supply applicant variables.
func addVariableFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("var", "v", nil, "Applicant variable as key=value (repeatable)")
	cmd.Flags().String("vars", "", "JSON or YAML file with applicant variables")
	cmd.Flags().Bool("json", false, "Print JSON instead of a report")
}

// bindFlags returns a PreRunE binding the named flags of the running command
// to settings keys. Binding at run time lets commands share a key.
func bindFlags(keys map[string]string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		for key, name := range keys {
			if err := settings.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
				return err
			}
		}
		return nil
	}
}
