package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the release version, overridable at build time with
// -ldflags "-X aslquant/cmd/aslquant/cmd.Version=...".
var Version = "0.1.0"

// versionCmd prints the release version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the aslquant version",
	Run: func(c *cobra.Command, args []string) {
		fmt.Fprintf(c.OutOrStdout(), "aslquant %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
