package core

import "github.com/tos-network/todochain/metrics"

var (
	blockInsertTimer     = metrics.NewRegisteredTimer("chain/inserts", nil)
	blockProcessTimer    = metrics.NewRegisteredTimer("chain/process", nil)
	blockCommitTimer     = metrics.NewRegisteredTimer("chain/commit", nil)
	txAppliedMeter       = metrics.NewRegisteredMeter("chain/tx/applied", nil)
	txFailedMeter        = metrics.NewRegisteredMeter("chain/tx/failed", nil)
	headBlockGauge       = metrics.NewRegisteredGauge("chain/head/block", nil)
	receiptCacheHitMeter = metrics.NewRegisteredMeter("chain/receipts/cache/hit", nil)
)
