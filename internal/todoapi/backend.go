// Package todoapi implements the HTTP API of a todochain node: transaction
// submission, receipts, account and TodoList views, and a websocket log
// stream.
package todoapi

import (
	"math/big"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core"
	"github.com/tos-network/todochain/core/state"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/event"
	"github.com/tos-network/todochain/params"
)

// Backend is the node surface the API is served from.
type Backend interface {
	ChainConfig() *params.ChainConfig
	ChainContext() core.ChainContext
	CurrentHeader() *types.Header

	// HeadState returns a private copy of the state at the chain head.
	HeadState() (*state.StateDB, error)
	// PendingState returns the head state with queued transactions applied
	// and the header they would be sealed in.
	PendingState() (*types.Header, *state.StateDB, error)

	PendingNonce(addr common.Address) (uint64, error)
	SuggestGasPrice() *big.Int
	SendTx(tx *types.Transaction) error
	GetReceipt(hash common.Hash) *types.Receipt

	SubscribeLogsEvent(ch chan<- []*types.Log) event.Subscription
}
