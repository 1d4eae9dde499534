package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Triage is a human-in-the-loop support ticket workflow engine",
	Long: `Triage runs customer support tickets through a fixed pipeline of
classification, order resolution, and policy checks, suspending each issue
for an admin decision before any reply is finalized.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a TOML config file")
}
