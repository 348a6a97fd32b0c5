// Package lnsim wires the simulator's components together: it loads a
// channel graph snapshot, starts the logging sink, and runs a scheduler
// under a wall-clock simulation deadline, the same shape the teacher's own
// Main (lnd.go) takes for its much larger node process.
package lnsim

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnsim/graph"
	"github.com/lightningnetwork/lnsim/routing"
	"github.com/lightningnetwork/lnsim/scheduler"
	"github.com/prometheus/client_golang/prometheus"
)

// Main is the simulator's true entry point. It is a plain function, not
// wired into os.Exit itself, so that cmd/lnsim can defer cleanup properly:
// lnd's own Main follows the same discipline for the same reason.
func Main(cfg *Config) error {
	if err := initLogRotator(cfg.LogFile, defaultMaxLogFileSize, defaultMaxLogFiles); err != nil {
		return fmt.Errorf("initializing log rotator: %w", err)
	}
	defer logRotator.Close()

	setLogLevels(cfg.DebugLevel)

	simLog.Infof("Starting lnsim, loading graph from %v", cfg.GraphFile)

	g, err := graph.LoadFile(cfg.GraphFile)
	if err != nil {
		return fmt.Errorf("loading channel graph: %w", err)
	}

	sched := scheduler.New(scheduler.Config{
		Graph:               g,
		RiskFactor:          routing.RiskFactor(cfg.RiskFactor),
		PaymentAmount:       cfg.PaymentAmount,
		MaxJitter:           cfg.MaxJitter,
		MaxInFlight:         cfg.MaxInFlight,
		ManagerPollInterval: cfg.ManagerPollInterval,
		TimelockCompression: cfg.TimelockCompression,
		Registerer:          prometheus.DefaultRegisterer,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SimulationDuration)
	defer cancel()

	simLog.Infof("Running simulation for %v", cfg.SimulationDuration)
	sched.Run(ctx)

	simLog.Infof("Simulation deadline reached, shutting down")

	return nil
}
