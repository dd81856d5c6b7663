package cmd

import (
	"fmt"
	"os"

	"github.com/encodeous/nyroute/sim"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run both algorithms and check them against the reference",
	Long: `Runs the scenario with distance-vector and link-state routing side by side.
Every forwarding path must cost as much as the Floyd-Warshall reference, and both algorithms must agree.`,
	Run: func(cmd *cobra.Command, args []string) {
		sc, log, closer, err := setup(cmd, "verify")
		if err != nil {
			panic(err)
		}
		defer closer()

		algos := []sim.Algorithm{sim.DistanceVector, sim.LinkState}
		sims := make([]*sim.Simulator, len(algos))
		results := make([][]sim.Mismatch, len(algos))

		g, ctx := errgroup.WithContext(cmd.Context())
		for i, algo := range algos {
			s, err := sim.NewSimulator(sc, algo, log.With("algorithm", algo))
			if err != nil {
				panic(err)
			}
			defer s.Stop()
			sims[i] = s

			g.Go(func() error {
				if err := s.Run(ctx); err != nil {
					return fmt.Errorf("%s: %w", algo, err)
				}
				m, err := sim.Verify(s)
				if err != nil {
					return fmt.Errorf("%s: %w", algo, err)
				}
				results[i] = m
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			panic(err)
		}

		failed := false
		for i, algo := range algos {
			for _, m := range results[i] {
				failed = true
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", algo, m)
			}
		}

		dv, ls := sims[0], sims[1]
		for _, src := range dv.NodeIds() {
			for _, dest := range dv.NodeIds() {
				if src == dest {
					continue
				}
				_, a, _ := dv.PathCost(src, dest)
				_, b, _ := ls.PathCost(src, dest)
				if a != b {
					failed = true
					fmt.Fprintf(cmd.OutOrStdout(), "%d -> %d: dv costs %s, ls costs %s\n", src, dest, sim.FormatCost(a), sim.FormatCost(b))
				}
			}
		}

		if failed {
			log.Error("verification failed")
			closer()
			os.Exit(1)
		}
		log.Info("both algorithms match the reference", "nodes", len(dv.NodeIds()))
	},
	GroupID: "sim",
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
