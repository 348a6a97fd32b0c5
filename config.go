package lnsim

import (
	"time"

	"github.com/lightningnetwork/lnsim/routing"
	"github.com/lightningnetwork/lnsim/scheduler"
)

// DefaultLogFilename is the log sink spec.md §6 describes.
const DefaultLogFilename = "sim.log"

// DefaultSimulationDuration is the wall-clock deadline spec.md §6 assigns
// the outer runner.
const DefaultSimulationDuration = 20 * time.Second

const (
	defaultMaxLogFileSize = 10
	defaultMaxLogFiles    = 3
)

// Config holds every runtime knob spec.md §6 names, parsed from the command
// line with jessevdk/go-flags the way the teacher parses its own top-level
// config.
type Config struct {
	GraphFile string `long:"graph" description:"path to the channel graph JSON snapshot" required:"true"`

	LogFile    string `long:"logfile" description:"file to write simulation logs to" default:"sim.log"`
	DebugLevel string `long:"debuglevel" description:"logging level for all subsystems (trace, debug, info, warn, error, critical)" default:"info"`

	SimulationDuration time.Duration `long:"duration" description:"wall-clock duration to run the simulation before abandoning in-flight payments" default:"20s"`

	PaymentAmount float64 `long:"amount" description:"fixed amount each issued payment requests" default:"1000"`

	RiskFactor float64 `long:"riskfactor" description:"opportunity cost per unit value per unit time used by the path finder's cost model" default:"1.5e-9"`

	TimelockCompression float64 `long:"timelockcompression" description:"blocks of timelock simulated per wall-clock second" default:"100"`

	MaxJitter time.Duration `long:"jitter" description:"upper bound of the uniform delay between successive payment issuances" default:"10ms"`

	ManagerPollInterval time.Duration `long:"pollinterval" description:"how often a payment manager re-examines its hops" default:"1ms"`

	MaxInFlight int64 `long:"maxinflight" description:"maximum number of payment managers running concurrently" default:"256"`
}

// DefaultConfig returns a Config populated with every documented default,
// for callers (tests, library embedders, cmd/lnsim) that want defaults
// before flag parsing overrides them.
func DefaultConfig() *Config {
	return &Config{
		LogFile:             DefaultLogFilename,
		DebugLevel:          "info",
		SimulationDuration:  DefaultSimulationDuration,
		PaymentAmount:       scheduler.DefaultPaymentAmount,
		RiskFactor:          float64(routing.DefaultRiskFactor),
		TimelockCompression: 100,
		MaxJitter:           scheduler.DefaultMaxJitter,
		ManagerPollInterval: time.Millisecond,
		MaxInFlight:         scheduler.DefaultMaxInFlight,
	}
}
