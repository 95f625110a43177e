package core

import "github.com/tos-network/todochain/core/types"

// ChainHeadEvent is posted when a new head block was written.
type ChainHeadEvent struct{ Block *types.Block }
