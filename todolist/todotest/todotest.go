// Package todotest holds fixtures and assertions for testing TodoList
// contracts on the simulated backend.
package todotest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tos-network/todochain/accounts/abi"
	"github.com/tos-network/todochain/accounts/abi/bind"
	"github.com/tos-network/todochain/accounts/abi/bind/backends"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/crypto"
	"github.com/tos-network/todochain/params"
	"github.com/tos-network/todochain/todolist/contract"
)

// The well-known development keys, so that addresses are stable across runs.
var devKeys = []string{
	"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	"59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
	"5de4111afa1a4b94908f83103eb1f1706367c2e68ca870fc3fb9a804cdab365a",
	"7c852118294e51e653712a81e05800f419141751be58f605c371e15141b007a6",
	"47e179ec197488593b187f80a00eb0da91f1b9d0b13f8733639f19c30a34926a",
}

// SignerBalance is the genesis balance of every signer: 10000 TOS.
var SignerBalance = new(big.Int).Mul(big.NewInt(10_000), big.NewInt(params.TOS))

// GasLimit is the block gas limit of fixture chains.
const GasLimit = params.GenesisGasLimit

// Signer is a funded account able to sign transactions on the simulated chain.
type Signer struct {
	Key     *crypto.PrivateKey
	Address common.Address
	Opts    *bind.TransactOpts
}

// Signers returns n deterministic signers. The first five use the
// well-known development keys; the rest are derived from their index.
func Signers(n int) []*Signer {
	signers := make([]*Signer, n)
	for i := range signers {
		var key *crypto.PrivateKey
		if i < len(devKeys) {
			key, _ = crypto.HexToECDSA(devKeys[i])
		} else {
			key, _ = crypto.ToECDSA(crypto.Keccak256([]byte(fmt.Sprintf("todotest signer %d", i))))
		}
		opts, err := bind.NewKeyedTransactorWithChainID(key, params.TestChainConfig.ChainID)
		if err != nil {
			panic(err)
		}
		signers[i] = &Signer{Key: key, Address: opts.From, Opts: opts}
	}
	return signers
}

// NewBackend returns an automining simulated backend funding every signer
// with SignerBalance.
func NewBackend(signers ...*Signer) *backends.SimulatedBackend {
	alloc := make(core.GenesisAlloc)
	for _, s := range signers {
		alloc[s.Address] = core.GenesisAccount{Balance: new(big.Int).Set(SignerBalance)}
	}
	backend := backends.NewSimulatedBackend(alloc, GasLimit)
	backend.SetAutoCommit(true)
	return backend
}

// Fixture is a deployed TodoList together with the accounts that use it.
type Fixture struct {
	Backend  *backends.SimulatedBackend
	Owner    *Signer
	Other    *Signer
	TodoList *contract.TodoList
	FEE      *big.Int
}

// DeployFixture deploys a TodoList with the default fee from the first of
// two signers on a fresh chain.
func DeployFixture(t testing.TB) *Fixture {
	t.Helper()
	signers := Signers(2)
	backend := NewBackend(signers...)
	t.Cleanup(func() { backend.Close() })

	_, tx, todoList, err := contract.DeployTodoList(signers[0].Opts, backend, nil)
	Mined(t, backend, tx, err)
	return &Fixture{
		Backend:  backend,
		Owner:    signers[0],
		Other:    signers[1],
		TodoList: todoList,
		FEE:      new(big.Int).Set(params.DefaultTodoFee),
	}
}

// CreateTodoFixture extends DeployFixture with one todo, "Go to the gym",
// created by the owner.
func CreateTodoFixture(t testing.TB) *Fixture {
	t.Helper()
	f := DeployFixture(t)
	tx, err := f.TodoList.CreateTodo(f.Owner.Opts.WithValue(f.FEE), "Go to the gym")
	Mined(t, f.Backend, tx, err)
	return f
}

// Mined requires the transaction to be sent without error and returns its
// successful receipt.
func Mined(t testing.TB, backend bind.DeployBackend, tx *types.Transaction, err error) *types.Receipt {
	t.Helper()
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	receipt, err := bind.WaitMined(ctx, backend, tx)
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status, "transaction %x failed: %x", tx.Hash(), receipt.RevertReason)
	return receipt
}

// TOS parses a decimal TOS amount such as "0.01" into wei.
func TOS(t testing.TB, amount string) *big.Int {
	t.Helper()
	wei, err := params.ParseTOS(amount)
	require.NoError(t, err)
	return wei
}

func revertData(t testing.TB, err error) []byte {
	t.Helper()
	require.Error(t, err, "expected the call to revert")
	var dataErr bind.DataError
	require.True(t, errors.As(err, &dataErr), "expected a revert, got %v", err)
	return dataErr.ErrorData()
}

// RequireRevertedWith requires err to be a revert with the given reason string.
func RequireRevertedWith(t testing.TB, err error, reason string) {
	t.Helper()
	data := revertData(t, err)
	got, uerr := abi.UnpackRevert(data)
	require.NoError(t, uerr, "revert data %x is not a reason string", data)
	require.Equal(t, reason, got)
}

// RequireRevertedWithCustomError requires err to be a revert with the custom
// error e. When args are given, the decoded error arguments must equal them.
func RequireRevertedWithCustomError(t testing.TB, err error, e abi.Error, args ...interface{}) {
	t.Helper()
	data := revertData(t, err)
	require.True(t, e.Matches(data), "revert data %x is not %s", data, e.Sig)
	if len(args) == 0 {
		return
	}
	got, uerr := e.Unpack(data)
	require.NoError(t, uerr)
	require.Equal(t, args, got)
}

// RequireRevertedWithoutReason requires err to be a revert carrying no data.
func RequireRevertedWithoutReason(t testing.TB, err error) {
	t.Helper()
	data := revertData(t, err)
	require.Empty(t, data, "expected a revert without reason")
}

// RequireEmitted requires receipt to contain at least one ev log emitted by
// contract and returns the matching logs.
func RequireEmitted(t testing.TB, receipt *types.Receipt, contract common.Address, ev abi.Event) []*types.Log {
	t.Helper()
	var logs []*types.Log
	for _, log := range receipt.Logs {
		if log.Address == contract && len(log.Topics) > 0 && log.Topics[0] == ev.ID {
			logs = append(logs, log)
		}
	}
	require.NotEmpty(t, logs, "event %s not emitted by %x", ev.Name, contract)
	return logs
}
