package core

import (
	"math/big"
	"testing"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/rawdb"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/crypto"
	"github.com/tos-network/todochain/params"
	"github.com/tos-network/todochain/tosdb"
)

var (
	testKey, _   = crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	testAddr     = crypto.PubkeyToAddress(testKey.PubKey())
	testFunds    = new(big.Int).Mul(big.NewInt(1000), big.NewInt(params.TOS))
	testCoinbase = common.HexToAddress("0xc014ba5ec014ba5ec014ba5ec014ba5ec014ba5e")
	testGasPrice = big.NewInt(params.GWei)
)

func newTestChain(t *testing.T) (*BlockChain, tosdb.Database) {
	t.Helper()
	db := rawdb.NewMemoryDatabase()
	genesis := &Genesis{
		Config:   params.TestChainConfig,
		GasLimit: params.GenesisGasLimit,
		Alloc:    GenesisAlloc{testAddr: {Balance: testFunds}},
	}
	genesis.MustCommit(db)
	chain, err := NewBlockChain(db, nil)
	if err != nil {
		t.Fatalf("failed to create chain: %v", err)
	}
	t.Cleanup(chain.Stop)
	return chain, db
}

func signTx(t *testing.T, nonce uint64, to common.Address, value *big.Int, gas uint64, data []byte) *types.Transaction {
	t.Helper()
	tx := types.NewTransaction(nonce, to, value, gas, testGasPrice, data)
	signed, err := types.SignTx(tx, types.MakeSigner(params.TestChainConfig), testKey)
	if err != nil {
		t.Fatalf("failed to sign tx: %v", err)
	}
	return signed
}

// makeBlock executes txs on top of the chain head and returns the resulting
// block without writing it.
func makeBlock(t *testing.T, chain *BlockChain, txs ...*types.Transaction) (*types.Block, types.Receipts) {
	t.Helper()
	parent := chain.CurrentBlock()
	statedb, err := chain.State()
	if err != nil {
		t.Fatalf("failed to open head state: %v", err)
	}
	header := &types.Header{
		ParentHash: parent.Hash(),
		Number:     new(big.Int).Add(parent.Number(), big.NewInt(1)),
		GasLimit:   parent.GasLimit(),
		Time:       parent.Time() + 1,
		Coinbase:   testCoinbase,
	}
	var (
		gp       = new(GasPool).AddGas(header.GasLimit)
		usedGas  uint64
		receipts types.Receipts
	)
	for i, tx := range txs {
		statedb.Prepare(tx.Hash(), i)
		receipt, err := ApplyTransaction(chain.Config(), chain, &header.Coinbase, gp, statedb, header, tx, &usedGas)
		if err != nil {
			t.Fatalf("failed to apply tx %d: %v", i, err)
		}
		receipts = append(receipts, receipt)
	}
	header.GasUsed = usedGas
	if header.Root, err = statedb.IntermediateRoot(); err != nil {
		t.Fatalf("failed to compute root: %v", err)
	}
	return types.NewBlock(header, txs, receipts), receipts
}
