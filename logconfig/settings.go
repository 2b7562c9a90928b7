package logconfig

import (
	myLogger "github.com/sirupsen/logrus"

	"github.com/portalnet-io/bridge-go/agreement"
)

// This output format is used in tests (has terminal).
func ConfigDebugLogger() {
	myLogger.SetReportCaller(true)
	myLogger.SetLevel(myLogger.DebugLevel)
	myLogger.SetFormatter(&myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

func ConfigInfoLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

// This output format is used in production. JSON lines, timestamped,
// one entry per settlement event.
func ConfigProductionLogger() {
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.JSONFormatter{})
}

// NetworkLogger returns an entry pre-tagged with the local network id,
// so every line of a node can be told apart when two nodes share one
// process (the demo server does this).
func NetworkLogger(network agreement.NetworkId) *myLogger.Entry {
	return myLogger.WithField("network", uint64(network))
}
