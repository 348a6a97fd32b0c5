package lnsim

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
	"github.com/lightningnetwork/lnsim/graph"
	"github.com/lightningnetwork/lnsim/payment"
	"github.com/lightningnetwork/lnsim/routing"
	"github.com/lightningnetwork/lnsim/scheduler"
)

// logWriter implements io.Writer and sends any bytes written to it to the
// rotating log file, the same shape lnd's own build.LogWriter takes: a
// single pipe any number of subsystem loggers can share.
type logWriter struct {
	rotatorPipe *io.PipeWriter
}

func (w *logWriter) Write(p []byte) (int, error) {
	return w.rotatorPipe.Write(p)
}

var (
	backendWriter = &logWriter{}
	backendLog    = btclog.NewBackend(backendWriter)
	logRotator    *rotator.Rotator

	simLog  = backendLog.Logger("SIML")
	grphLog = backendLog.Logger("GRPH")
	pfndLog = backendLog.Logger("PFND")
	paymLog = backendLog.Logger("PAYM")
	schdLog = backendLog.Logger("SCHD")

	subsystemLoggers = map[string]btclog.Logger{
		"SIML": simLog,
		"GRPH": grphLog,
		"PFND": pfndLog,
		"PAYM": paymLog,
		"SCHD": schdLog,
	}
)

func init() {
	graph.UseLogger(grphLog)
	routing.UseLogger(pfndLog)
	payment.UseLogger(paymLog)
	scheduler.UseLogger(schdLog)
}

// initLogRotator initializes the logging rotator to write logs to logFile
// and roll files in the same directory, mirroring the teacher's own
// initLogRotator (peterzen-dcrlnd/log.go), trimmed to the single sink
// spec.md §6 calls for.
func initLogRotator(logFile string, maxLogFileSize, maxLogFiles int) error {
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	r, err := rotator.New(logFile, int64(maxLogFileSize*1024), false, maxLogFiles)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}

	pr, pw := io.Pipe()
	go r.Run(pr)

	backendWriter.rotatorPipe = pw
	logRotator = r

	return nil
}

// setLogLevels sets every subsystem logger to the given level string.
// Invalid levels are ignored, per the teacher's own setLogLevels.
func setLogLevels(levelStr string) {
	level, ok := btclog.LevelFromString(levelStr)
	if !ok {
		return
	}

	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
}
