package graph

import "github.com/btcsuite/btclog"

// log is the package-level logger used throughout this package. It is
// disabled by default until UseLogger is called by the caller that wires up
// the simulator's logging backend.
var log = btclog.Disabled

// UseLogger sets the package-wide logger used by the graph package. This
// follows the same convention lnd uses for every one of its subsystem
// packages: a private logger variable that defaults to a no-op until the
// top-level binary supplies a real one.
func UseLogger(logger btclog.Logger) {
	log = logger
}
