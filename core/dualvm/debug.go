package dualvm

import (
	"os"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Package-wide debug switch for verbose logging in the strategy layer.
// Default is off to keep harness output clean unless explicitly enabled.
var (
	// DebugLogsEnabled toggles all dual-VM strategy debug logs (mock matching,
	// registry resolution, migration steps).
	DebugLogsEnabled = false
)

func init() {
	if os.Getenv("ZKFORGE_DEBUG") == "1" || os.Getenv("ZKFORGE_DEBUG") == "true" {
		DebugLogsEnabled = true
	}
}

// EnableDebugLogs toggles all dual-VM strategy debug logs.
func EnableDebugLogs(on bool) { DebugLogsEnabled = on }

func shouldLog() bool { return DebugLogsEnabled }

// debugInfo emits info only if debug logging is enabled.
func debugInfo(msg string, ctx ...interface{}) {
	if shouldLog() {
		ethlog.Info(msg, ctx...)
	}
}

// debugWarn emits a warning only if debug logging is enabled.
func debugWarn(msg string, ctx ...interface{}) {
	if shouldLog() {
		ethlog.Warn(msg, ctx...)
	}
}
