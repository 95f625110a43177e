package todolist

import (
	"fmt"
	"math/big"

	"github.com/tos-network/todochain/accounts/abi"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/core/vm"
	"github.com/tos-network/todochain/crypto"
	"github.com/tos-network/todochain/params"
	"github.com/tos-network/todochain/sysaction"
)

func init() {
	sysaction.DefaultRegistry.Register(&todoHandler{})
}

// todoHandler implements sysaction.Handler for the TodoList contract.
type todoHandler struct{}

func (h *todoHandler) CanHandle(kind sysaction.ActionKind) bool {
	switch kind {
	case sysaction.ActionTodoDeploy,
		sysaction.ActionTodoCreate,
		sysaction.ActionTodoUpdate,
		sysaction.ActionTodoDelete,
		sysaction.ActionTodoTransferOwnership,
		sysaction.ActionTodoRenounceOwnership,
		sysaction.ActionTodoWithdraw,
		sysaction.ActionTodoFee,
		sysaction.ActionTodoOwner,
		sysaction.ActionTodoGet,
		sysaction.ActionTodoCount:
		return true
	}
	return false
}

func (h *todoHandler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	switch sa.Action {
	case sysaction.ActionTodoDeploy:
		return h.handleDeploy(ctx, sa)
	case sysaction.ActionTodoCreate:
		return h.handleCreate(ctx, sa)
	case sysaction.ActionTodoUpdate:
		return h.handleUpdate(ctx, sa)
	case sysaction.ActionTodoDelete:
		return h.handleDelete(ctx, sa)
	case sysaction.ActionTodoTransferOwnership:
		return h.handleTransferOwnership(ctx, sa)
	case sysaction.ActionTodoRenounceOwnership:
		return h.handleRenounceOwnership(ctx, sa)
	case sysaction.ActionTodoWithdraw:
		return h.handleWithdraw(ctx, sa)
	case sysaction.ActionTodoFee, sysaction.ActionTodoOwner, sysaction.ActionTodoCount:
		return h.handleView(ctx, sa)
	case sysaction.ActionTodoGet:
		return h.handleGet(ctx, sa)
	}
	return nil
}

// contract resolves the TodoList addressed by a payload.
func contract(ctx *sysaction.Context, addr common.Address) error {
	if !IsTodoList(ctx.StateDB, addr) {
		return fmt.Errorf("%w: %s", ErrNotTodoList, addr.Hex())
	}
	return nil
}

// nonPayable rejects value sent to a function that does not accept it.
func nonPayable(ctx *sysaction.Context) error {
	if ctx.Value != nil && ctx.Value.Sign() != 0 {
		return vm.Revert()
	}
	return nil
}

func onlyOwner(ctx *sysaction.Context, addr common.Address) error {
	if ReadOwner(ctx.StateDB, addr) != ctx.From {
		return vm.RevertWithCustomError(OwnableUnauthorizedAccount, ctx.From)
	}
	return nil
}

func chargeStorage(ctx *sysaction.Context, words uint64) error {
	return ctx.UseGas(words * params.TodoStorageWordGas)
}

// emit packs an event into a log of the contract and charges for it.
func emit(ctx *sysaction.Context, addr common.Address, ev abi.Event, args ...interface{}) error {
	topics, data, err := ev.Pack(args...)
	if err != nil {
		return err
	}
	gas := params.TodoLogGas + uint64(len(topics))*params.TodoLogTopicGas + uint64(len(data))*params.TodoLogDataGas
	if err := ctx.UseGas(gas); err != nil {
		return err
	}
	var number uint64
	if ctx.BlockNumber != nil {
		number = ctx.BlockNumber.Uint64()
	}
	ctx.StateDB.AddLog(&types.Log{
		Address:     addr,
		Topics:      topics,
		Data:        data,
		BlockNumber: number,
	})
	emittedMeter.Mark(1)
	return nil
}

func (h *todoHandler) handleDeploy(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	// ── Validation phase (no state writes) ───────────────────────────────────

	fee := ctx.ChainConfig.TodoFee()
	if len(sa.Payload) > 0 {
		var p sysaction.TodoDeployPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return err
		}
		if p.Fee != nil {
			fee = new(big.Int).Set(p.Fee.ToInt())
		}
	}
	if fee.Sign() < 0 {
		return ErrInvalidFee
	}
	if fee.BitLen() > 256 {
		return ErrFeeOverflow
	}
	if err := nonPayable(ctx); err != nil {
		return err
	}
	addr := crypto.CreateAddress(ctx.From, ctx.Nonce)
	if ctx.StateDB.GetNonce(addr) != 0 || ctx.StateDB.GetCodeSize(addr) != 0 {
		return vm.ErrContractAddressCollision
	}

	// ── Mutation phase ───────────────────────────────────────────────────────

	ctx.StateDB.CreateAccount(addr)
	ctx.StateDB.SetNonce(addr, 1)
	ctx.StateDB.SetCode(addr, Code)
	writeOwner(ctx.StateDB, addr, ctx.From)
	writeFee(ctx.StateDB, addr, fee)
	if err := chargeStorage(ctx, 2+chunkCount(uint64(len(Code)))); err != nil {
		return err
	}
	ctx.CreatedAddress = addr
	deployMeter.Mark(1)
	return emit(ctx, addr, OwnershipTransferredEvent, common.Address{}, ctx.From)
}

func (h *todoHandler) handleCreate(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.TodoCreatePayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	if err := contract(ctx, p.Contract); err != nil {
		return err
	}
	// Ownership is checked before the fee.
	if err := onlyOwner(ctx, p.Contract); err != nil {
		return err
	}
	fee := ReadFee(ctx.StateDB, p.Contract)
	if ctx.Value == nil || ctx.Value.Cmp(fee) != 0 {
		return vm.RevertWithReason(fmt.Sprintf("Must send %s TOS to create a Todo", params.FormatTOS(fee)))
	}
	if ctx.StateDB.GetBalance(ctx.From).Cmp(ctx.Value) < 0 {
		return vm.ErrInsufficientBalance
	}

	ctx.StateDB.SubBalance(ctx.From, ctx.Value)
	ctx.StateDB.AddBalance(p.Contract, ctx.Value)

	index, words := appendItem(ctx.StateDB, p.Contract, Todo{Definition: p.Text, Status: StatusTodo})
	if err := chargeStorage(ctx, words); err != nil {
		return err
	}
	createMeter.Mark(1)
	return emit(ctx, p.Contract, CreateTodoEvent, index, p.Text)
}

func (h *todoHandler) handleUpdate(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.TodoUpdatePayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	if err := contract(ctx, p.Contract); err != nil {
		return err
	}
	if err := nonPayable(ctx); err != nil {
		return err
	}
	index := uint64(p.Index)
	if _, ok := ReadTodo(ctx.StateDB, p.Contract, index); !ok {
		return vm.Revert()
	}
	words := writeItem(ctx.StateDB, p.Contract, index, Todo{Definition: p.Text, Status: Status(p.Status)})
	if err := chargeStorage(ctx, words); err != nil {
		return err
	}
	updateMeter.Mark(1)
	return emit(ctx, p.Contract, UpdateTodoEvent, index, p.Status, p.Text)
}

func (h *todoHandler) handleDelete(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.TodoIndexPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	if err := contract(ctx, p.Contract); err != nil {
		return err
	}
	if err := nonPayable(ctx); err != nil {
		return err
	}
	index := uint64(p.Index)
	if _, ok := ReadTodo(ctx.StateDB, p.Contract, index); !ok {
		return vm.Revert()
	}
	if err := chargeStorage(ctx, clearItem(ctx.StateDB, p.Contract, index)); err != nil {
		return err
	}
	deleteMeter.Mark(1)
	return emit(ctx, p.Contract, DeleteTodoEvent, index)
}

func (h *todoHandler) handleTransferOwnership(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.TodoTransferOwnershipPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	if err := contract(ctx, p.Contract); err != nil {
		return err
	}
	if err := nonPayable(ctx); err != nil {
		return err
	}
	if err := onlyOwner(ctx, p.Contract); err != nil {
		return err
	}
	if p.NewOwner == (common.Address{}) {
		return vm.RevertWithCustomError(OwnableInvalidOwner, common.Address{})
	}
	return transferOwnership(ctx, p.Contract, p.NewOwner)
}

func (h *todoHandler) handleRenounceOwnership(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.TodoContractPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	if err := contract(ctx, p.Contract); err != nil {
		return err
	}
	if err := nonPayable(ctx); err != nil {
		return err
	}
	if err := onlyOwner(ctx, p.Contract); err != nil {
		return err
	}
	return transferOwnership(ctx, p.Contract, common.Address{})
}

func transferOwnership(ctx *sysaction.Context, addr, newOwner common.Address) error {
	prev := ReadOwner(ctx.StateDB, addr)
	writeOwner(ctx.StateDB, addr, newOwner)
	if err := chargeStorage(ctx, 1); err != nil {
		return err
	}
	return emit(ctx, addr, OwnershipTransferredEvent, prev, newOwner)
}

func (h *todoHandler) handleWithdraw(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.TodoContractPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	if err := contract(ctx, p.Contract); err != nil {
		return err
	}
	if err := nonPayable(ctx); err != nil {
		return err
	}
	if err := onlyOwner(ctx, p.Contract); err != nil {
		return err
	}
	amount := ctx.StateDB.GetBalance(p.Contract)
	ctx.StateDB.SubBalance(p.Contract, amount)
	ctx.StateDB.AddBalance(ctx.From, amount)
	return emit(ctx, p.Contract, WithdrawEvent, ctx.From, amount)
}

func (h *todoHandler) handleView(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.TodoContractPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	if err := contract(ctx, p.Contract); err != nil {
		return err
	}
	if err := nonPayable(ctx); err != nil {
		return err
	}
	var (
		out []byte
		err error
	)
	switch sa.Action {
	case sysaction.ActionTodoFee:
		out, err = abi.Pack([]abi.Type{abi.Uint256Ty}, ReadFee(ctx.StateDB, p.Contract))
	case sysaction.ActionTodoOwner:
		out, err = abi.Pack([]abi.Type{abi.AddressTy}, ReadOwner(ctx.StateDB, p.Contract))
	case sysaction.ActionTodoCount:
		out, err = abi.Pack([]abi.Type{abi.Uint256Ty}, ReadCount(ctx.StateDB, p.Contract))
	}
	if err != nil {
		return err
	}
	ctx.ReturnData = out
	return nil
}

func (h *todoHandler) handleGet(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.TodoIndexPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return err
	}
	if err := contract(ctx, p.Contract); err != nil {
		return err
	}
	if err := nonPayable(ctx); err != nil {
		return err
	}
	todo, ok := ReadTodo(ctx.StateDB, p.Contract, uint64(p.Index))
	if !ok {
		return vm.Revert()
	}
	out, err := abi.Pack([]abi.Type{abi.StringTy, abi.Uint8Ty}, todo.Definition, uint8(todo.Status))
	if err != nil {
		return err
	}
	ctx.ReturnData = out
	return nil
}
