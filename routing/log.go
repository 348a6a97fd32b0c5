package routing

import "github.com/btcsuite/btclog"

// log is the package-level logger for the path-finding subsystem.
var log = btclog.Disabled

// UseLogger sets the package-wide logger used by the routing package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
