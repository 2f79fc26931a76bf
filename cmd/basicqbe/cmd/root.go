package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "basicqbe",
	Short: "A BASIC-to-QBE compiler",
	Long:  `basicqbe lowers a BASIC-dialect program to QBE's textual SSA IL.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "pipeline",
		Title: "Pipeline",
	})
	rootCmd.AddCommand(compileCmd)
}
