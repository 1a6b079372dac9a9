package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "spur-example",
	Short: "Notes API built with spur",
	Long: `spur-example serves an in-memory notes API.

Quick start:
  spur-example serve            # start the server
  spur-example routes           # print the compiled route table
  spur-example check            # probe a running server`,
	SilenceUsage: true,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "spur.yaml", "config file path")
}
