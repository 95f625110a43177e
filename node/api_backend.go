package node

import (
	"math/big"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core"
	"github.com/tos-network/todochain/core/state"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/event"
	"github.com/tos-network/todochain/internal/todoapi"
	"github.com/tos-network/todochain/params"
)

var _ todoapi.Backend = (*APIBackend)(nil)

// APIBackend implements todoapi.Backend for a node.
type APIBackend struct {
	n *Node
}

func (b *APIBackend) ChainConfig() *params.ChainConfig { return b.n.chain.Config() }

func (b *APIBackend) ChainContext() core.ChainContext { return b.n.chain }

func (b *APIBackend) CurrentHeader() *types.Header { return b.n.chain.CurrentHeader() }

func (b *APIBackend) HeadState() (*state.StateDB, error) { return b.n.chain.State() }

func (b *APIBackend) PendingState() (*types.Header, *state.StateDB, error) {
	return b.n.miner.PendingState()
}

func (b *APIBackend) PendingNonce(addr common.Address) (uint64, error) {
	return b.n.miner.PendingNonce(addr)
}

func (b *APIBackend) SuggestGasPrice() *big.Int {
	return new(big.Int).SetUint64(b.n.config.GasPrice)
}

func (b *APIBackend) SendTx(tx *types.Transaction) error { return b.n.miner.AddTx(tx) }

func (b *APIBackend) GetReceipt(hash common.Hash) *types.Receipt {
	return b.n.chain.GetTransactionReceipt(hash)
}

func (b *APIBackend) SubscribeLogsEvent(ch chan<- []*types.Log) event.Subscription {
	return b.n.chain.SubscribeLogsEvent(ch)
}
