package backends

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/tos-network/todochain/accounts/abi/bind"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/core/vm"
	"github.com/tos-network/todochain/crypto"
	"github.com/tos-network/todochain/params"
	"github.com/tos-network/todochain/sysaction"
)

var (
	testKey, _ = crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	testAddr   = crypto.PubkeyToAddress(testKey.PubKey())
)

func simTestBackend(testAddr common.Address) *SimulatedBackend {
	return NewSimulatedBackend(
		core.GenesisAlloc{
			testAddr: {Balance: big.NewInt(params.TOS)},
		}, params.GenesisGasLimit,
	)
}

func signedTransfer(t *testing.T, nonce uint64, to common.Address, value int64) *types.Transaction {
	t.Helper()
	tx := types.NewTransaction(nonce, to, big.NewInt(value), params.TxGas, big.NewInt(1), nil)
	signed, err := types.SignTx(tx, types.MakeSigner(params.TestChainConfig), testKey)
	if err != nil {
		t.Fatalf("could not sign tx: %v", err)
	}
	return signed
}

func TestSendTransactionAndCommit(t *testing.T) {
	sim := simTestBackend(testAddr)
	defer sim.Close()
	ctx := context.Background()
	to := common.HexToAddress("0x0aaa")

	tx := signedTransfer(t, 0, to, 100)
	if err := sim.SendTransaction(ctx, tx); err != nil {
		t.Fatalf("could not send tx: %v", err)
	}
	if _, err := sim.TransactionReceipt(ctx, tx.Hash()); !errors.Is(err, bind.ErrNotFound) {
		t.Fatalf("pending tx has a receipt: %v", err)
	}
	if nonce, _ := sim.PendingNonceAt(ctx, testAddr); nonce != 1 {
		t.Fatalf("pending nonce mismatch: %d", nonce)
	}
	if nonce, _ := sim.NonceAt(ctx, testAddr); nonce != 0 {
		t.Fatalf("head nonce moved before commit: %d", nonce)
	}
	sim.Commit()

	receipt, err := sim.TransactionReceipt(ctx, tx.Hash())
	if err != nil {
		t.Fatalf("receipt not found: %v", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		t.Fatalf("transfer failed")
	}
	if bal, _ := sim.BalanceAt(ctx, to); bal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("balance mismatch: %v", bal)
	}
	if err := sim.SendTransaction(ctx, tx); !errors.Is(err, core.ErrNonceTooLow) {
		t.Fatalf("expected nonce too low on resend, got %v", err)
	}
}

func TestSnapshotRevert(t *testing.T) {
	sim := simTestBackend(testAddr)
	defer sim.Close()
	ctx := context.Background()
	to := common.HexToAddress("0x0bbb")

	snap := sim.Snapshot()
	sim.SetAutoCommit(true)
	if err := sim.SendTransaction(ctx, signedTransfer(t, 0, to, 5)); err != nil {
		t.Fatalf("could not send tx: %v", err)
	}
	if bal, _ := sim.BalanceAt(ctx, to); bal.Int64() != 5 {
		t.Fatalf("auto commit did not seal: %v", bal)
	}
	after := sim.Snapshot()

	for i := 0; i < 2; i++ {
		if err := sim.Revert(snap); err != nil {
			t.Fatalf("revert failed: %v", err)
		}
		if bal, _ := sim.BalanceAt(ctx, to); bal.Sign() != 0 {
			t.Fatalf("revert %d kept the transfer: %v", i, bal)
		}
		if head := sim.Blockchain().CurrentBlock().NumberU64(); head != 0 {
			t.Fatalf("revert %d kept head %d", i, head)
		}
		// The same transaction can be replayed on the restored chain.
		if err := sim.SendTransaction(ctx, signedTransfer(t, 0, to, 5)); err != nil {
			t.Fatalf("replay %d failed: %v", i, err)
		}
	}
	if err := sim.Revert(after); err != nil {
		t.Fatalf("revert to later snapshot failed: %v", err)
	}
	if bal, _ := sim.BalanceAt(ctx, to); bal.Int64() != 5 {
		t.Fatalf("later snapshot lost the transfer: %v", bal)
	}
	if err := sim.Revert(42); err == nil {
		t.Fatalf("expected error for unknown snapshot")
	}
}

func TestCallContractRevert(t *testing.T) {
	sim := simTestBackend(testAddr)
	defer sim.Close()
	ctx := context.Background()
	sim.SetAutoCommit(true)

	deploy := sysaction.MustMakeSysAction(sysaction.ActionTodoDeploy, nil)
	tx := types.NewTransaction(0, params.SystemActionAddress, nil, 1_000_000, big.NewInt(1), deploy)
	tx, _ = types.SignTx(tx, types.MakeSigner(params.TestChainConfig), testKey)
	if err := sim.SendTransaction(ctx, tx); err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	receipt, err := sim.TransactionReceipt(ctx, tx.Hash())
	if err != nil || receipt.Status != types.ReceiptStatusSuccessful {
		t.Fatalf("deploy not mined: %v", err)
	}
	code, err := sim.CodeAt(ctx, receipt.ContractAddress)
	if err != nil || len(code) == 0 {
		t.Fatalf("no code at deployed contract")
	}

	get := sysaction.MustMakeSysAction(sysaction.ActionTodoGet, &sysaction.TodoIndexPayload{Contract: receipt.ContractAddress})
	_, err = sim.CallContract(ctx, bind.CallMsg{From: testAddr, To: &params.SystemActionAddress, Data: get})
	if !errors.Is(err, vm.ErrExecutionReverted) {
		t.Fatalf("expected revert, got %v", err)
	}
	var dataErr bind.DataError
	if !errors.As(err, &dataErr) || len(dataErr.ErrorData()) != 0 {
		t.Fatalf("expected a revert without data, got %v", err)
	}
	if _, err := sim.EstimateGas(ctx, bind.CallMsg{From: testAddr, To: &params.SystemActionAddress, Data: get}); !errors.Is(err, vm.ErrExecutionReverted) {
		t.Fatalf("expected estimate to revert, got %v", err)
	}
}

func TestEstimateGasUsesPendingState(t *testing.T) {
	sim := simTestBackend(testAddr)
	defer sim.Close()
	ctx := context.Background()

	deploy := sysaction.MustMakeSysAction(sysaction.ActionTodoDeploy, nil)
	tx := types.NewTransaction(0, params.SystemActionAddress, nil, 1_000_000, big.NewInt(1), deploy)
	tx, _ = types.SignTx(tx, types.MakeSigner(params.TestChainConfig), testKey)
	if err := sim.SendTransaction(ctx, tx); err != nil {
		t.Fatalf("deploy failed: %v", err)
	}
	contract := crypto.CreateAddress(testAddr, 0)
	count := sysaction.MustMakeSysAction(sysaction.ActionTodoCount, &sysaction.TodoContractPayload{Contract: contract})
	gas, err := sim.EstimateGas(ctx, bind.CallMsg{From: testAddr, To: &params.SystemActionAddress, Data: count})
	if err != nil {
		t.Fatalf("estimate on pending deployment failed: %v", err)
	}
	if gas < params.TxGas+params.SysActionGas {
		t.Fatalf("estimate %d below the fixed action cost", gas)
	}
	// The head state does not know the contract yet.
	if _, err := sim.CallContract(ctx, bind.CallMsg{From: testAddr, To: &params.SystemActionAddress, Data: count}); err == nil {
		t.Fatalf("call against the head state found a pending contract")
	}
}
