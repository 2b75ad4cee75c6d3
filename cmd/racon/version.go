package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of racon",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("racon version 1.0.0")
	},
}
