package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/encodeous/nyroute/sim"
	"github.com/encodeous/nyroute/state"
	"github.com/spf13/cobra"
)

// setup reads the scenario and builds the logger from the persistent flags.
// The returned function must be called once the command is done logging.
func setup(cmd *cobra.Command, prefix string) (*state.Scenario, *slog.Logger, func() error, error) {
	sc, err := state.ReadScenario(state.ScenarioPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read scenario %s: %w", state.ScenarioPath, err)
	}

	level := slog.LevelInfo
	if ok, _ := cmd.Flags().GetBool("verbose"); ok {
		level = slog.LevelDebug
	}
	logPath, _ := cmd.Flags().GetString("log-path")
	log, closer, err := sim.NewLogger(sim.LogOptions{
		Level:   level,
		Prefix:  prefix,
		Console: cmd.ErrOrStderr(),
		Path:    logPath,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	if addr, _ := cmd.Flags().GetString("debug-addr"); addr != "" {
		go func() {
			log.Error("debug server stopped", "error", http.ListenAndServe(addr, nil))
		}()
	}
	return sc, log, closer, nil
}

func algorithmFlag(cmd *cobra.Command) sim.Algorithm {
	name, _ := cmd.Flags().GetString("algorithm")
	algo, err := sim.ParseAlgorithm(name)
	if err != nil {
		panic(err)
	}
	return algo
}

func parseNodeId(s string) state.NodeId {
	id, err := strconv.Atoi(s)
	if err != nil {
		panic(fmt.Errorf("invalid node id %q: %w", s, err))
	}
	return state.NodeId(id)
}
