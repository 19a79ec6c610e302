package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/finecision/finecision/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow-file>...",
	Short: "Check workflow documents for structural problems",
	Long: `Reports missing or duplicate triggers, duplicate node ids, dangling
connections, ambiguous branches and credit score checks without a score.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunValidate(args, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
