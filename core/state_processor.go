package core

import (
	"fmt"
	"math/big"
	"time"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/state"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/core/vm"
	"github.com/tos-network/todochain/log"
	"github.com/tos-network/todochain/params"
)

// StateProcessor is a basic Processor, which takes care of transitioning
// state from one point to another.
//
// StateProcessor implements Processor.
type StateProcessor struct {
	config *params.ChainConfig // Chain configuration options
	bc     ChainContext        // Canonical block chain
}

// NewStateProcessor initialises a new StateProcessor.
func NewStateProcessor(config *params.ChainConfig, bc ChainContext) *StateProcessor {
	return &StateProcessor{
		config: config,
		bc:     bc,
	}
}

// Process processes the state changes by running the transaction messages
// using the statedb.
//
// Process returns the receipts and logs accumulated during the process and
// returns the amount of gas that was used in the process. If any of the
// transactions failed to be applied (as opposed to failing execution) it
// will return an error.
func (p *StateProcessor) Process(block *types.Block, statedb *state.StateDB) (types.Receipts, []*types.Log, uint64, error) {
	var (
		receipts    types.Receipts
		usedGas     = new(uint64)
		header      = block.Header()
		blockHash   = block.Hash()
		blockNumber = block.Number()
		allLogs     []*types.Log
		gp          = new(GasPool).AddGas(block.GasLimit())
		start       = time.Now()
	)
	blockCtx := NewBlockContext(header, p.bc, nil)
	signer := types.MakeSigner(p.config)
	// Iterate over and process the individual transactions
	for i, tx := range block.Transactions() {
		msg, err := tx.AsMessage(signer)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("could not apply tx %d [%v]: %w", i, tx.Hash().Hex(), err)
		}
		statedb.Prepare(tx.Hash(), i)
		receipt, err := applyTransaction(msg, p.config, blockCtx, gp, statedb, blockNumber, blockHash, tx, usedGas)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("could not apply tx %d [%v]: %w", i, tx.Hash().Hex(), err)
		}
		receipts = append(receipts, receipt)
		allLogs = append(allLogs, receipt.Logs...)
	}
	blockProcessTimer.UpdateSince(start)
	log.Debug("Processed block", "number", blockNumber, "txs", len(block.Transactions()), "gas", *usedGas, "elapsed", time.Since(start))
	return receipts, allLogs, *usedGas, nil
}

func applyTransaction(msg types.Message, config *params.ChainConfig, blockCtx vm.BlockContext, gp *GasPool, statedb *state.StateDB, blockNumber *big.Int, blockHash common.Hash, tx *types.Transaction, usedGas *uint64) (*types.Receipt, error) {
	// Apply the transaction to the current state.
	result, err := ApplyMessage(blockCtx, config, msg, gp, statedb)
	if err != nil {
		return nil, err
	}

	// Update the state with pending changes.
	statedb.Finalise()
	*usedGas += result.UsedGas

	// Create a new receipt for the transaction, storing the gas used by the tx.
	receipt := types.NewReceipt(result.Failed(), *usedGas)
	if result.Failed() {
		txFailedMeter.Mark(1)
		receipt.RevertReason = result.Revert()
		log.Debug("Transaction failed", "hash", tx.Hash(), "err", result.Err)
	} else {
		receipt.ContractAddress = result.ContractAddress
	}
	txAppliedMeter.Mark(1)
	receipt.TxHash = tx.Hash()
	receipt.GasUsed = result.UsedGas

	// Set the receipt logs.
	receipt.Logs = statedb.GetLogs(tx.Hash(), blockNumber.Uint64(), blockHash)
	receipt.BlockHash = blockHash
	receipt.BlockNumber = blockNumber
	receipt.TransactionIndex = uint(statedb.TxIndex())
	return receipt, err
}

// ApplyTransaction attempts to apply a transaction to the given state database
// and uses the input parameters for its environment. It returns the receipt
// for the transaction, gas used and an error if the transaction failed,
// indicating the block was invalid.
func ApplyTransaction(config *params.ChainConfig, bc ChainContext, author *common.Address, gp *GasPool, statedb *state.StateDB, header *types.Header, tx *types.Transaction, usedGas *uint64) (*types.Receipt, error) {
	msg, err := tx.AsMessage(types.MakeSigner(config))
	if err != nil {
		return nil, err
	}
	blockCtx := NewBlockContext(header, bc, author)
	return applyTransaction(msg, config, blockCtx, gp, statedb, header.Number, header.Hash(), tx, usedGas)
}
