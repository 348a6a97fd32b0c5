package scheduler

import "github.com/btcsuite/btclog"

// log is the package-level logger for the payment-issuance subsystem.
var log = btclog.Disabled

// UseLogger sets the package-wide logger used by the scheduler package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
