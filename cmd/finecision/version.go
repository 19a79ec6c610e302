package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finecision/finecision"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of finecision",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "finecision version %s\n", strings.TrimSpace(finecision.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
