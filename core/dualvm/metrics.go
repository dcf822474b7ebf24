package dualvm

import "github.com/ethereum/go-ethereum/metrics"

var (
	mockHitCounter      = metrics.NewRegisteredCounter("dualvm/mocks/hit", nil)
	mockMissCounter     = metrics.NewRegisteredCounter("dualvm/mocks/miss", nil)
	registryHitCounter  = metrics.NewRegisteredCounter("dualvm/registry/hit", nil)
	registryMissCounter = metrics.NewRegisteredCounter("dualvm/registry/miss", nil)
	expectedCallCounter = metrics.NewRegisteredCounter("dualvm/expectcalls/recorded", nil)
	migrationRunCounter = metrics.NewRegisteredCounter("dualvm/migration/runs", nil)
)
