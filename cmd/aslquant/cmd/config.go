package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"aslquant/pkg/config"
)

// configCmd groups configuration helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage aslquant configuration",
}

// configInitCmd writes a default configuration file
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(c *cobra.Command, args []string) error {
		if err := config.CreateDefaultConfigFile(cfgFile); err != nil {
			return err
		}
		fmt.Printf("Wrote default configuration to %s\n", cfgFile)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
