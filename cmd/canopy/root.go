package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "Canopy is a hierarchical Gaussian filtering engine",
	Long: `Canopy filters noisy observation sequences through a hierarchy of
coupled Gaussian random walks, tracking a belief trajectory and the
surprise of each observation.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "canopy.yaml", "Path to the model configuration file")
}
