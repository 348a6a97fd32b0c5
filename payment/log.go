package payment

import "github.com/btcsuite/btclog"

// log is the package-level logger for the payment lifecycle subsystem.
var log = btclog.Disabled

// UseLogger sets the package-wide logger used by the payment package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
