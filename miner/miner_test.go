package miner

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core"
	"github.com/tos-network/todochain/core/rawdb"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/crypto"
	"github.com/tos-network/todochain/params"
)

var (
	testBankKey, _  = crypto.GenerateKey()
	testBankAddress = crypto.PubkeyToAddress(testBankKey.PubKey())
	testBankFunds   = new(big.Int).Mul(big.NewInt(100), big.NewInt(params.TOS))

	testUserAddress = common.HexToAddress("0x0000000000000000000000000000000000000bee")
	testCoinbase    = common.HexToAddress("0x0000000000000000000000000000000000c01b")
)

func newTestMiner(t *testing.T, recommit time.Duration) (*Miner, *core.BlockChain) {
	t.Helper()
	db := rawdb.NewMemoryDatabase()
	genesis := &core.Genesis{
		Config: params.TestChainConfig,
		Alloc:  core.GenesisAlloc{testBankAddress: {Balance: testBankFunds}},
	}
	genesis.MustCommit(db)
	chain, err := core.NewBlockChain(db, nil)
	if err != nil {
		t.Fatalf("failed to create chain: %v", err)
	}
	t.Cleanup(chain.Stop)
	return New(chain, Config{Coinbase: testCoinbase, Recommit: recommit}), chain
}

func newTx(t *testing.T, nonce uint64, gas uint64) *types.Transaction {
	t.Helper()
	tx := types.NewTransaction(nonce, testUserAddress, big.NewInt(1000), gas, big.NewInt(params.GWei), nil)
	signed, err := types.SignTx(tx, types.MakeSigner(params.TestChainConfig), testBankKey)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	return signed
}

func TestAddTxValidation(t *testing.T) {
	miner, _ := newTestMiner(t, 0)

	if err := miner.AddTx(newTx(t, 0, params.TxGas)); err != nil {
		t.Fatalf("failed to add tx: %v", err)
	}
	if err := miner.AddTx(newTx(t, 0, params.TxGas)); !errors.Is(err, ErrAlreadyKnown) {
		t.Fatalf("expected already known, got %v", err)
	}
	if err := miner.AddTx(newTx(t, 5, params.TxGas)); !errors.Is(err, core.ErrNonceTooHigh) {
		t.Fatalf("expected nonce too high, got %v", err)
	}
	if err := miner.AddTx(newTx(t, 1, params.GenesisGasLimit+1)); !errors.Is(err, core.ErrGasLimitReached) {
		t.Fatalf("expected gas limit error, got %v", err)
	}
	if nonce, _ := miner.PendingNonce(testBankAddress); nonce != 1 {
		t.Fatalf("pending nonce mismatch: %d", nonce)
	}
}

func TestSealPending(t *testing.T) {
	miner, chain := newTestMiner(t, 0)
	for i := uint64(0); i < 3; i++ {
		if err := miner.AddTx(newTx(t, i, params.TxGas)); err != nil {
			t.Fatalf("failed to add tx %d: %v", i, err)
		}
	}
	block, err := miner.Seal()
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if len(block.Transactions()) != 3 {
		t.Fatalf("sealed %d txs, want 3", len(block.Transactions()))
	}
	if chain.CurrentBlock().Hash() != block.Hash() {
		t.Fatalf("sealed block is not the head")
	}
	if len(miner.Pending()) != 0 {
		t.Fatalf("pending not cleared")
	}
	statedb, _ := chain.State()
	if bal := statedb.GetBalance(testUserAddress); bal.Cmp(big.NewInt(3000)) != 0 {
		t.Fatalf("recipient balance mismatch: %v", bal)
	}
	fee := new(big.Int).Mul(big.NewInt(int64(3*params.TxGas)), big.NewInt(params.GWei))
	if bal := statedb.GetBalance(testCoinbase); bal.Cmp(fee) != 0 {
		t.Fatalf("coinbase balance mismatch: have %v want %v", bal, fee)
	}
	receipt := chain.GetTransactionReceipt(block.Transactions()[2].Hash())
	if receipt == nil || receipt.TransactionIndex != 2 || receipt.BlockHash != block.Hash() {
		t.Fatalf("receipt position mismatch: %+v", receipt)
	}
	// An empty seal still advances the chain.
	if empty, err := miner.Seal(); err != nil || empty.NumberU64() != 2 {
		t.Fatalf("empty seal failed: %v", err)
	}
}

func TestLoopSealsOnArrival(t *testing.T) {
	miner, chain := newTestMiner(t, 0)
	heads := make(chan core.ChainHeadEvent, 1)
	sub := chain.SubscribeChainHeadEvent(heads)
	defer sub.Unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- miner.Loop(ctx) }()

	if err := miner.AddTx(newTx(t, 0, params.TxGas)); err != nil {
		t.Fatalf("failed to add tx: %v", err)
	}
	select {
	case ev := <-heads:
		if len(ev.Block.Transactions()) != 1 {
			t.Fatalf("unexpected block contents: %d txs", len(ev.Block.Transactions()))
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("transaction was not sealed")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
}
