package cmd

import (
	"fmt"
	"net/netip"
	"os"

	"github.com/encodeous/nyroute/sim"
	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace <src> <addr>",
	Short: "Forward a probe from a node to an address",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		algo := algorithmFlag(cmd)
		src := parseNodeId(args[0])
		addr, err := netip.ParseAddr(args[1])
		if err != nil {
			panic(err)
		}

		sc, log, closer, err := setup(cmd, string(algo))
		if err != nil {
			panic(err)
		}
		defer closer()

		fwd, err := sim.NewForwarder(sc)
		if err != nil {
			panic(err)
		}
		s, err := sim.NewSimulator(sc, algo, log)
		if err != nil {
			panic(err)
		}
		defer s.Stop()

		err = s.Run(cmd.Context())
		if err != nil {
			panic(err)
		}

		path, err := fwd.Trace(s, src, addr)
		for i, id := range path {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d  node %d\n", i, id)
		}
		if err != nil {
			log.Error("probe was not delivered", "error", err)
			closer()
			os.Exit(1)
		}
		dest, _ := fwd.Lookup(addr)
		log.Info("probe delivered", "dest", dest, "hops", len(path)-1)
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(traceCmd)

	traceCmd.Flags().StringP("algorithm", "a", string(sim.DistanceVector), "routing algorithm, dv or ls")
}
