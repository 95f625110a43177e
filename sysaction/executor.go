package sysaction

import (
	"fmt"
	"math/big"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/vm"
	"github.com/tos-network/todochain/params"
)

// Context carries information available to a system-action handler.
type Context struct {
	From        common.Address
	Value       *big.Int
	Nonce       uint64 // nonce of the carrying transaction, before increment
	TxHash      common.Hash
	BlockNumber *big.Int
	Time        uint64
	StateDB     vm.StateDB
	ChainConfig *params.ChainConfig
	Gas         *vm.GasMeter

	// Outputs filled in by the handler.
	ReturnData     []byte
	CreatedAddress common.Address
}

// UseGas charges amount against the action's gas meter. A context without a
// meter is unmetered.
func (ctx *Context) UseGas(amount uint64) error {
	if ctx.Gas == nil {
		return nil
	}
	return ctx.Gas.UseGas(amount)
}

// Handler is implemented by native contract sub-systems.
type Handler interface {
	CanHandle(kind ActionKind) bool
	Handle(ctx *Context, sa *SysAction) error
}

// Registry holds registered handlers.
type Registry struct{ handlers []Handler }

// DefaultRegistry is the process-wide handler registry.
var DefaultRegistry = &Registry{}

// Register adds a handler to the registry.
func (r *Registry) Register(h Handler) { r.handlers = append(r.handlers, h) }

// Execute decodes data and dispatches it to the first handler accepting
// its action kind.
func (r *Registry) Execute(ctx *Context, data []byte) error {
	sa, err := Decode(data)
	if err != nil {
		return err
	}
	for _, h := range r.handlers {
		if h.CanHandle(sa.Action) {
			return h.Handle(ctx, sa)
		}
	}
	return fmt.Errorf("%w: unknown system action %q", ErrInvalidSysAction, sa.Action)
}

// Msg is the minimal message interface for Execute, satisfied by types.Message.
type Msg interface {
	From() common.Address
	To() *common.Address
	Value() *big.Int
	Nonce() uint64
	Data() []byte
	TxHash() common.Hash
}

// NewContext builds the handler context of msg executing at the given block.
func NewContext(msg Msg, db vm.StateDB, block vm.BlockContext, config *params.ChainConfig, gas uint64) *Context {
	value := msg.Value()
	if value == nil {
		value = new(big.Int)
	}
	var time uint64
	if block.Time != nil {
		time = block.Time.Uint64()
	}
	return &Context{
		From:        msg.From(),
		Value:       value,
		Nonce:       msg.Nonce(),
		TxHash:      msg.TxHash(),
		BlockNumber: block.BlockNumber,
		Time:        time,
		StateDB:     db,
		ChainConfig: config,
		Gas:         vm.NewGasMeter(gas),
	}
}

// Execute processes a system action from msg with the default registry.
// It returns the handler context so that callers can collect the gas used,
// the return data and the created contract address, even on failure.
// Called from core/state_transition.go.
func Execute(msg Msg, db vm.StateDB, block vm.BlockContext, config *params.ChainConfig, gas uint64) (*Context, error) {
	ctx := NewContext(msg, db, block, config, gas)
	if err := ctx.UseGas(params.SysActionGas); err != nil {
		return ctx, err
	}
	return ctx, DefaultRegistry.Execute(ctx, msg.Data())
}
