package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped at build time with -ldflags.
var version = "dev"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println("contaflow " + version)
		},
	}
}
