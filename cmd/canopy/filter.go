package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// filterCmd represents the filter command
var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter an observation sequence and print the belief trajectory",
	Long: `Filters a sequence of observations through the configured model.
Observations are read from a YAML file: a list of scalars where null
marks a missing observation.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		obsPath, _ := cmd.Flags().GetString("observations")
		if !cmd.Flags().Changed("observations") && len(args) > 0 {
			obsPath = args[0]
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		logLevel, _ := cmd.Flags().GetString("log-level")

		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		observations, err := config.LoadObservations(obsPath)
		if err != nil {
			fmt.Printf("Error loading observations: %v\n", err)
			os.Exit(1)
		}

		model, err := canopy.New(cfg, canopy.WithLogger(logging.New(logging.ParseLevel(logLevel))))
		if err != nil {
			fmt.Printf("Error initializing model: %v\n", err)
			os.Exit(1)
		}
		if err := model.Fit(context.Background(), observations); err != nil {
			fmt.Printf("Filtering failed: %v\n", err)
			os.Exit(1)
		}

		if jsonMode {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(model.Trajectory()); err != nil {
				fmt.Printf("Error encoding trajectory: %v\n", err)
				os.Exit(1)
			}
			return
		}
		tui.PrintRunSummary(model.Trajectory(), model.Surprise())
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)

	filterCmd.Flags().StringP("observations", "o", "observations.yaml", "Path to the observation sequence file")
	filterCmd.Flags().Bool("json", false, "Print the full trajectory as JSON instead of a summary")
	filterCmd.Flags().String("log-level", "warn", "Log level: debug, info, warn, error")
}
