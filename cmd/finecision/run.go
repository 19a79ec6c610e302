package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/finecision/finecision"
	"github.com/finecision/finecision/internal/cli"
	"github.com/finecision/finecision/internal/config"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <workflow-file>",
	Short: "Decide an applicant against a workflow document",
	Long: `Loads a workflow document (.json, .yaml or .yml), resolves calculated
variables, runs the decision and prints the visited path and credit score.`,
	Example: `  finecision run examples/workflows/personal-loan.yaml -v age=32 -v income=5400 -v debt=900`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine(cmd)
		if err != nil {
			return err
		}
		_, err = cli.RunDecision(cmd.Context(), engine, runOptions(cmd, args[0]), os.Stdout)
		return err
	},
}

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview <workflow-file>",
	Short: "Compute calculated variables and the credit score for partial data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine(cmd)
		if err != nil {
			return err
		}
		return cli.RunPreview(engine, runOptions(cmd, args[0]), os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(previewCmd)

	addVariableFlags(runCmd)
	addVariableFlags(previewCmd)
}

func runOptions(cmd *cobra.Command, path string) cli.RunOptions {
	vars, _ := cmd.Flags().GetStringArray("var")
	varsFile, _ := cmd.Flags().GetString("vars")
	jsonMode, _ := cmd.Flags().GetBool("json")
	return cli.RunOptions{
		WorkflowPath: path,
		VarsFile:     varsFile,
		Vars:         vars,
		JSON:         jsonMode,
	}
}

// newEngine builds a standalone engine from the loaded configuration.
func newEngine(cmd *cobra.Command) (*finecision.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return engineFor(cfg), nil
}

func engineFor(cfg *config.Config) *finecision.Engine {
	opts := []finecision.Option{finecision.WithLogger(cli.NewLogger(cfg))}
	if cfg.Engine.StepMultiplier > 0 {
		opts = append(opts, finecision.WithStepMultiplier(cfg.Engine.StepMultiplier))
	}
	if cfg.Engine.MaxSteps > 0 {
		opts = append(opts, finecision.WithMaxSteps(cfg.Engine.MaxSteps))
	}
	return finecision.New(opts...)
}
