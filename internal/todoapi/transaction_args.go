package todoapi

import (
	"errors"
	"math"
	"math/big"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/common/hexutil"
	"github.com/tos-network/todochain/core"
	"github.com/tos-network/todochain/core/state"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/log"
)

var errNoTarget = errors.New("call without target address")

// CallArgs represents the arguments of a message call or a gas estimation.
type CallArgs struct {
	From     *common.Address `json:"from"`
	To       *common.Address `json:"to"`
	Gas      *hexutil.Uint64 `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Value    *hexutil.Big    `json:"value"`
	Data     *hexutil.Bytes  `json:"input"`
}

// from retrieves the call sender address.
func (args *CallArgs) from() common.Address {
	if args.From == nil {
		return common.Address{}
	}
	return *args.From
}

// data retrieves the call data.
func (args *CallArgs) data() []byte {
	if args.Data == nil {
		return nil
	}
	return *args.Data
}

// ToMessage converts the call arguments to the Message type used by the
// state transition. Missing gas is capped by globalGasCap.
func (args *CallArgs) ToMessage(nonce uint64, globalGasCap uint64) types.Message {
	gas := globalGasCap
	if gas == 0 {
		gas = uint64(math.MaxUint64 / 2)
	}
	if args.Gas != nil && uint64(*args.Gas) < gas {
		gas = uint64(*args.Gas)
	} else if args.Gas != nil {
		log.Warn("Caller gas above allowance, capping", "requested", uint64(*args.Gas), "cap", globalGasCap)
	}
	gasPrice := new(big.Int)
	if args.GasPrice != nil {
		gasPrice = args.GasPrice.ToInt()
	}
	value := new(big.Int)
	if args.Value != nil {
		value = args.Value.ToInt()
	}
	return types.NewMessage(args.from(), args.To, nonce, value, gas, gasPrice, args.data(), true)
}

// DoCall executes args as a read-only message against statedb. The sender is
// credited with enough balance to pay for the call, so views never fail for
// lack of funds.
func DoCall(b Backend, args CallArgs, header *types.Header, statedb *state.StateDB, globalGasCap uint64) (*core.ExecutionResult, error) {
	if args.To == nil {
		return nil, errNoTarget
	}
	if globalGasCap == 0 || globalGasCap > header.GasLimit {
		globalGasCap = header.GasLimit
	}
	msg := args.ToMessage(statedb.GetNonce(args.from()), globalGasCap)

	funds := new(big.Int).Mul(msg.GasPrice(), new(big.Int).SetUint64(msg.Gas()))
	statedb.AddBalance(msg.From(), funds.Add(funds, msg.Value()))

	blockCtx := core.NewBlockContext(header, b.ChainContext(), nil)
	gp := new(core.GasPool).AddGas(math.MaxUint64)
	return core.ApplyMessage(blockCtx, b.ChainConfig(), msg, gp, statedb)
}

// DoEstimateGas runs args on top of the pending state and returns the gas it
// used. Native actions never refund gas, so a single run is exact.
func DoEstimateGas(b Backend, args CallArgs, gasCap uint64) (hexutil.Uint64, error) {
	header, statedb, err := b.PendingState()
	if err != nil {
		return 0, err
	}
	res, err := DoCall(b, args, header, statedb, gasCap)
	if err != nil {
		return 0, err
	}
	if res.Failed() {
		return 0, res.Err
	}
	return hexutil.Uint64(res.UsedGas), nil
}
