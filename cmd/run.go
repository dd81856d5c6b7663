package cmd

import (
	"fmt"

	"github.com/encodeous/nyroute/sim"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario and print every routing table",
	Long:  `Runs the scenario until the network is quiet, then prints the next hop table of every node as YAML.`,
	Run: func(cmd *cobra.Command, args []string) {
		algo := algorithmFlag(cmd)
		sc, log, closer, err := setup(cmd, string(algo))
		if err != nil {
			panic(err)
		}
		defer closer()

		s, err := sim.NewSimulator(sc, algo, log)
		if err != nil {
			panic(err)
		}
		defer s.Stop()

		err = s.Run(cmd.Context())
		if err != nil {
			panic(err)
		}
		stats := s.Stats()
		log.Info("network is quiet", "time", s.Now(), "events", stats.Events, "sent", stats.Sent, "dropped", stats.Dropped)

		tables := make(map[int][]sim.Route)
		for _, id := range s.NodeIds() {
			routes, err := s.RoutingTable(id)
			if err != nil {
				panic(err)
			}
			tables[int(id)] = routes
		}
		out, err := yaml.Marshal(tables)
		if err != nil {
			panic(err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("algorithm", "a", string(sim.DistanceVector), "routing algorithm, dv or ls")
}
