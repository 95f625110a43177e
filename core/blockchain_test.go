package core

import (
	"errors"
	"testing"
	"time"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/crypto"
	"github.com/tos-network/todochain/params"
	"github.com/tos-network/todochain/sysaction"
)

func TestInsertBlockAndLookup(t *testing.T) {
	chain, _ := newTestChain(t)
	tx := signTx(t, 0, params.SystemActionAddress, nil, 1_000_000, sysaction.MustMakeSysAction(sysaction.ActionTodoDeploy, nil))
	block, _ := makeBlock(t, chain, tx)

	if err := chain.InsertBlock(block); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if head := chain.CurrentBlock(); head.Hash() != block.Hash() {
		t.Fatalf("head not advanced: have %x want %x", head.Hash(), block.Hash())
	}
	if got := chain.GetBlockByNumber(1); got == nil || got.Hash() != block.Hash() {
		t.Fatalf("canonical lookup failed")
	}
	receipt := chain.GetTransactionReceipt(tx.Hash())
	if receipt == nil {
		t.Fatalf("receipt not found")
	}
	if receipt.BlockHash != block.Hash() || receipt.BlockNumber.Uint64() != 1 {
		t.Fatalf("receipt position mismatch: %x #%v", receipt.BlockHash, receipt.BlockNumber)
	}
	for _, l := range receipt.Logs {
		if l.BlockHash != block.Hash() || l.TxHash != tx.Hash() {
			t.Fatalf("log position mismatch: %+v", l)
		}
	}
	if got, hash, number := chain.GetTransaction(tx.Hash()); got == nil || hash != block.Hash() || number != 1 {
		t.Fatalf("transaction lookup failed")
	}
	// The second lookup is served from the receipt cache.
	if again := chain.GetReceiptsByHash(block.Hash()); len(again) != 1 {
		t.Fatalf("cached receipts mismatch: %d", len(again))
	}
	if err := chain.InsertBlock(block); !errors.Is(err, ErrKnownBlock) {
		t.Fatalf("expected known block error, got %v", err)
	}
}

func TestInsertBlockValidation(t *testing.T) {
	chain, _ := newTestChain(t)
	block, receipts := makeBlock(t, chain, signTx(t, 0, common.HexToAddress("0x0404"), nil, params.TxGas, nil))

	header := block.Header()
	header.Root = common.HexToHash("0xbad")
	if err := chain.InsertBlock(types.NewBlock(header, block.Transactions(), receipts)); !errors.Is(err, ErrBadStateRoot) {
		t.Fatalf("expected bad state root, got %v", err)
	}
	header = block.Header()
	header.ParentHash = common.HexToHash("0x01")
	if err := chain.InsertBlock(types.NewBlock(header, block.Transactions(), receipts)); !errors.Is(err, ErrUnknownAncestor) {
		t.Fatalf("expected unknown ancestor, got %v", err)
	}
	header = block.Header()
	header.Number.SetUint64(5)
	if err := chain.InsertBlock(types.NewBlock(header, block.Transactions(), receipts)); !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("expected invalid number, got %v", err)
	}
	if chain.CurrentBlock().NumberU64() != 0 {
		t.Fatalf("rejected blocks moved the head")
	}
	if err := chain.InsertBlock(block); err != nil {
		t.Fatalf("valid block rejected: %v", err)
	}
}

func TestSubscribeEvents(t *testing.T) {
	chain, _ := newTestChain(t)
	logsCh := make(chan []*types.Log, 1)
	headCh := make(chan ChainHeadEvent, 1)
	logSub := chain.SubscribeLogsEvent(logsCh)
	headSub := chain.SubscribeChainHeadEvent(headCh)
	defer logSub.Unsubscribe()
	defer headSub.Unsubscribe()

	block, _ := makeBlock(t, chain, signTx(t, 0, params.SystemActionAddress, nil, 1_000_000, sysaction.MustMakeSysAction(sysaction.ActionTodoDeploy, nil)))
	if err := chain.InsertBlock(block); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	select {
	case ev := <-headCh:
		if ev.Block.Hash() != block.Hash() {
			t.Fatalf("head event for wrong block")
		}
	case <-time.After(time.Second):
		t.Fatalf("no head event")
	}
	select {
	case logs := <-logsCh:
		if len(logs) != 1 || logs[0].Address != crypto.CreateAddress(testAddr, 0) {
			t.Fatalf("unexpected logs: %v", logs)
		}
	case <-time.After(time.Second):
		t.Fatalf("no logs event")
	}
}

func TestReopenChain(t *testing.T) {
	chain, db := newTestChain(t)
	block, _ := makeBlock(t, chain, signTx(t, 0, common.HexToAddress("0x0505"), nil, params.TxGas, nil))
	if err := chain.InsertBlock(block); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	chain.Stop()
	if err := chain.InsertBlock(block); !errors.Is(err, errChainStopped) {
		t.Fatalf("expected stopped chain error, got %v", err)
	}
	reopened, err := NewBlockChain(db, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Stop()
	if reopened.CurrentBlock().Hash() != block.Hash() {
		t.Fatalf("head not restored")
	}
	if _, err := reopened.State(); err != nil {
		t.Fatalf("head state unavailable: %v", err)
	}
}
