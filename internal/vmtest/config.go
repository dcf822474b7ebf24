// Package vmtest provides testing utilities for running the same test
// against the native EVM and the zkVM strategy implementations.
package vmtest

import (
	"os"

	"github.com/zkforge/zkforge/core/dualvm"
)

// =============================================================================
// Dual-mode testing helpers (native + zk)
// =============================================================================
//
// These helpers allow tests to run with both strategy variants.
//
// Usage:
//   - By default, tests only run with the native strategy
//   - Set TEST_WITH_ZKVM=true environment variable to also run with zk
//
// Example:
//   import "github.com/zkforge/zkforge/internal/vmtest"
//
//   func TestSomething(t *testing.T) {
//       for _, cfg := range vmtest.Configs() {
//           t.Run(vmtest.Name(cfg), func(t *testing.T) {
//               // test code using cfg
//           })
//       }
//   }
//
// Running tests:
//   go test ./...                        # native only (default)
//   TEST_WITH_ZKVM=true go test ./...    # native + zk

// Configs returns strategy configs to test. By default only the native
// config; set TEST_WITH_ZKVM=true to also include zk, backed by an empty
// registry.
func Configs() []dualvm.Config {
	configs := []dualvm.Config{
		{}, // Default native strategy
	}
	if ZkEnabled() {
		configs = append(configs, dualvm.Config{
			UseZkVM:  true,
			Registry: dualvm.NewContractRegistry(),
		})
	}
	return configs
}

// Name returns a human-readable name for a config, for sub-test naming.
func Name(cfg dualvm.Config) string {
	if cfg.UseZkVM {
		return "ZkVM"
	}
	return "EVM"
}

// ZkEnabled returns true if zk testing is enabled via environment variable.
func ZkEnabled() bool {
	return os.Getenv("TEST_WITH_ZKVM") == "true"
}
