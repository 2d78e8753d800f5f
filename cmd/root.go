// Package cmd is for command line interactions with the cldb application
package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "cldb",
	Short: `Post-process CRISPR spacer and direct repeat BLAST hits.
Classify spacer hits as array hits vs protospacers, extract PAMs and
profile seed region mismatches`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}
