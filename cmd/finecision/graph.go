package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/finecision/finecision/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <workflow-file>",
	Short: "Export the workflow graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the workflow. With applicant
variables, the decision path is highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine(cmd)
		if err != nil {
			return err
		}
		return cli.RunGraph(cmd.Context(), engine, runOptions(cmd, args[0]), os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringArrayP("var", "v", nil, "Applicant variable as key=value (repeatable)")
	graphCmd.Flags().String("vars", "", "JSON or YAML file with applicant variables")
}
