package cmd

import (
	"os"

	"github.com/encodeous/nyroute/state"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nyroute",
	Short: "Nyroute Routing Simulator CLI",
	Long: `Nyroute simulates distance-vector and link-state routing over a virtual network.
Scenarios describe the topology and the link changes applied to it, and every run can be checked against a reference shortest path computation.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "sim",
		Title: "Simulation Commands",
	})
	rootCmd.PersistentFlags().StringVarP(&state.ScenarioPath, "scenario", "s", state.ScenarioPath, "scenario to simulate")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("log-path", "", "also write logs to this file")
	rootCmd.PersistentFlags().String("debug-addr", "", "serve metrics on this address, e.g. 127.0.0.1:6060")
}
