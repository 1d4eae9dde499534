package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viridien/triage"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of triage",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("triage version %s\n", strings.TrimSpace(triage.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
