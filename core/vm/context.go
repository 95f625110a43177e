// Package vm provides the execution environment shared by plain transfers
// and native contracts.
package vm

import (
	"math/big"

	"github.com/tos-network/todochain/common"
)

// BlockContext provides auxiliary information for transaction processing.
type BlockContext struct {
	CanTransfer CanTransferFunc
	Transfer    TransferFunc
	GetHash     GetHashFunc

	Coinbase    common.Address
	GasLimit    uint64
	BlockNumber *big.Int
	Time        *big.Int
}

// TxContext provides information about a transaction.
type TxContext struct {
	Origin   common.Address
	GasPrice *big.Int
	TxHash   common.Hash
}

// CanTransferFunc is the signature of a transfer guard function.
type CanTransferFunc func(StateDB, common.Address, *big.Int) bool

// TransferFunc is the signature of a transfer function.
type TransferFunc func(StateDB, common.Address, common.Address, *big.Int)

// GetHashFunc returns the nth block hash in the blockchain.
type GetHashFunc func(uint64) common.Hash

// GasMeter tracks the gas available to a native contract call.
type GasMeter struct {
	limit uint64
	used  uint64
}

// NewGasMeter returns a meter allowing limit gas to be consumed.
func NewGasMeter(limit uint64) *GasMeter {
	return &GasMeter{limit: limit}
}

// UseGas consumes amount gas, failing with ErrOutOfGas once the limit is
// exceeded. A failed charge consumes the remaining gas.
func (m *GasMeter) UseGas(amount uint64) error {
	if m.limit-m.used < amount {
		m.used = m.limit
		return ErrOutOfGas
	}
	m.used += amount
	return nil
}

// Used returns the consumed gas.
func (m *GasMeter) Used() uint64 { return m.used }

// Remaining returns the unconsumed gas.
func (m *GasMeter) Remaining() uint64 { return m.limit - m.used }
