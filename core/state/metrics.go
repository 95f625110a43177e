package state

import "github.com/tos-network/todochain/metrics"

var (
	accountUpdatedMeter   = metrics.NewRegisteredMeter("state/update/account", nil)
	storageUpdatedMeter   = metrics.NewRegisteredMeter("state/update/storage", nil)
	storageCacheHitMeter  = metrics.NewRegisteredMeter("state/cache/storage/hit", nil)
	storageCacheMissMeter = metrics.NewRegisteredMeter("state/cache/storage/miss", nil)
	commitTimer           = metrics.NewRegisteredTimer("state/commit", nil)
)
