package rawdb

import (
	"math/big"
	"testing"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/crypto"
	"github.com/tos-network/todochain/params"
)

func TestHeaderStorage(t *testing.T) {
	db := NewMemoryDatabase()

	header := &types.Header{Number: big.NewInt(42), GasLimit: params.GenesisGasLimit}
	if entry := ReadHeader(db, header.Hash(), header.Number.Uint64()); entry != nil {
		t.Fatalf("Non existent header returned: %v", entry)
	}
	WriteHeader(db, header)
	if entry := ReadHeader(db, header.Hash(), header.Number.Uint64()); entry == nil {
		t.Fatalf("Stored header not found")
	} else if entry.Hash() != header.Hash() {
		t.Fatalf("Retrieved header mismatch: have %v, want %v", entry, header)
	}
	if number := ReadHeaderNumber(db, header.Hash()); number == nil || *number != 42 {
		t.Fatalf("hash to number mapping mismatch: %v", number)
	}
}

func TestBlockReceiptStorage(t *testing.T) {
	db := NewMemoryDatabase()

	key, _ := crypto.GenerateKey()
	signer := types.NewSigner(big.NewInt(1))
	to := common.HexToAddress("0x01")
	tx1 := types.MustSignNewTx(key, signer, &types.TxData{Nonce: 0, To: &to, Value: big.NewInt(1), Gas: 21000, GasPrice: big.NewInt(1)})
	tx2 := types.MustSignNewTx(key, signer, &types.TxData{Nonce: 1, To: &to, Value: big.NewInt(2), Gas: 21000, GasPrice: big.NewInt(1)})

	receipts := types.Receipts{
		{Status: types.ReceiptStatusSuccessful, CumulativeGasUsed: 21000, Logs: []*types.Log{{Address: to, Topics: []common.Hash{{0x11}}, Data: []byte{0x01}}}},
		{Status: types.ReceiptStatusFailed, CumulativeGasUsed: 42000, Logs: []*types.Log{}, RevertReason: []byte{0x01, 0x02}},
	}
	block := types.NewBlock(&types.Header{Number: big.NewInt(1)}, []*types.Transaction{tx1, tx2}, receipts)
	if err := receipts.DeriveFields(block.Hash(), block.NumberU64(), block.Transactions()); err != nil {
		t.Fatal(err)
	}
	WriteBlock(db, block)
	WriteReceipts(db, block.Hash(), block.NumberU64(), receipts)
	WriteCanonicalHash(db, block.Hash(), block.NumberU64())
	WriteTxLookupEntriesByBlock(db, block)
	WriteHeadBlockHash(db, block.Hash())

	if have := ReadHeadBlockHash(db); have != block.Hash() {
		t.Fatalf("head hash mismatch: have %x want %x", have, block.Hash())
	}
	stored := ReadBlock(db, block.Hash(), 1)
	if stored == nil {
		t.Fatalf("stored block not found")
	}
	if stored.Hash() != block.Hash() || len(stored.Transactions()) != 2 {
		t.Fatalf("stored block mismatch")
	}
	if stored.Transactions()[1].Hash() != tx2.Hash() {
		t.Fatalf("transaction order lost")
	}
	r, hash, number, index := ReadReceipt(db, tx2.Hash())
	if r == nil {
		t.Fatalf("receipt not found by tx hash")
	}
	if hash != block.Hash() || number != 1 || index != 1 {
		t.Fatalf("receipt position mismatch: %x %d %d", hash, number, index)
	}
	if r.Status != types.ReceiptStatusFailed || string(r.RevertReason) != "\x01\x02" {
		t.Fatalf("receipt content mismatch: %+v", r)
	}
	if r.GasUsed != 21000 {
		t.Fatalf("gas used mismatch: have %d want 21000", r.GasUsed)
	}
	first, _, _, _ := ReadReceipt(db, tx1.Hash())
	if len(first.Logs) != 1 || first.Logs[0].BlockHash != block.Hash() {
		t.Fatalf("log derived fields were not persisted")
	}
}

func TestStorageAccessors(t *testing.T) {
	db := NewMemoryDatabase()
	addr := common.HexToAddress("0xaa")
	other := common.HexToAddress("0xab")

	WriteStorage(db, addr, common.Hash{2}, common.BigToHash(big.NewInt(7)))
	WriteStorage(db, addr, common.Hash{1}, common.BigToHash(big.NewInt(5)))
	WriteStorage(db, other, common.Hash{1}, common.BigToHash(big.NewInt(9)))

	if v := ReadStorage(db, addr, common.Hash{2}); v.Big().Int64() != 7 {
		t.Fatalf("slot value mismatch: %x", v)
	}
	var slots []common.Hash
	if err := IterateStorage(db, addr, func(slot, value common.Hash) bool {
		slots = append(slots, slot)
		return true
	}); err != nil {
		t.Fatal(err)
	}
	if len(slots) != 2 || slots[0] != (common.Hash{1}) || slots[1] != (common.Hash{2}) {
		t.Fatalf("iteration mismatch: %x", slots)
	}
	WriteStorage(db, addr, common.Hash{1}, common.Hash{})
	if ok, _ := db.Has(storageKey(addr, common.Hash{1})); ok {
		t.Fatalf("zero write should delete the slot")
	}
}

func TestChainConfigStorage(t *testing.T) {
	db := NewMemoryDatabase()
	genesis := common.HexToHash("0x1234")
	WriteChainConfig(db, genesis, params.TestChainConfig)
	cfg := ReadChainConfig(db, genesis)
	if cfg == nil || cfg.ChainID.Cmp(params.TestChainConfig.ChainID) != 0 {
		t.Fatalf("chain config mismatch: %v", cfg)
	}
	if cfg.TodoFee().Cmp(params.DefaultTodoFee) != 0 {
		t.Fatalf("fee mismatch: %v", cfg.TodoFee())
	}
}
