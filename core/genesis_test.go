package core

import (
	"errors"
	"math/big"
	"testing"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/rawdb"
	"github.com/tos-network/todochain/core/state"
	"github.com/tos-network/todochain/params"
)

func TestSetupGenesisDefault(t *testing.T) {
	db := rawdb.NewMemoryDatabase()
	config, hash, err := SetupGenesisBlock(db, nil)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if config != params.DevChainConfig {
		t.Fatalf("unexpected config: %v", config)
	}
	if want := DefaultDevGenesisBlock().ToBlock().Hash(); hash != want {
		t.Fatalf("genesis hash mismatch: have %x want %x", hash, want)
	}
	if stored := rawdb.ReadCanonicalHash(db, 0); stored != hash {
		t.Fatalf("canonical hash not written: have %x want %x", stored, hash)
	}
	// A second setup reuses the stored genesis.
	if _, again, err := SetupGenesisBlock(db, nil); err != nil || again != hash {
		t.Fatalf("re-setup mismatch: hash %x err %v", again, err)
	}
}

func TestSetupGenesisMismatch(t *testing.T) {
	db := rawdb.NewMemoryDatabase()
	DefaultDevGenesisBlock().MustCommit(db)

	other := DeveloperGenesisBlock(0, common.HexToAddress("0x01"))
	_, _, err := SetupGenesisBlock(db, other)
	var mismatch *GenesisMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected genesis mismatch, got %v", err)
	}
}

func TestGenesisCommitAlloc(t *testing.T) {
	db := rawdb.NewMemoryDatabase()
	addr := common.HexToAddress("0xabcd")
	slot := common.HexToHash("0x01")
	genesis := &Genesis{
		Config: params.TestChainConfig,
		Alloc: GenesisAlloc{
			addr: {
				Balance: big.NewInt(42),
				Nonce:   3,
				Code:    []byte("code"),
				Storage: map[common.Hash]common.Hash{slot: common.HexToHash("0xff")},
			},
		},
	}
	block := genesis.MustCommit(db)
	if block.Root() != genesis.ToBlock().Root() {
		t.Fatalf("committed root differs from ToBlock root")
	}
	if block.GasLimit() != params.GenesisGasLimit {
		t.Fatalf("default gas limit not applied: %d", block.GasLimit())
	}
	statedb, err := state.New(block.Root(), state.NewDatabase(db))
	if err != nil {
		t.Fatalf("failed to open genesis state: %v", err)
	}
	if bal := statedb.GetBalance(addr); bal.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("balance mismatch: %v", bal)
	}
	if nonce := statedb.GetNonce(addr); nonce != 3 {
		t.Fatalf("nonce mismatch: %d", nonce)
	}
	if code := statedb.GetCode(addr); string(code) != "code" {
		t.Fatalf("code mismatch: %q", code)
	}
	if v := statedb.GetState(addr, slot); v != common.HexToHash("0xff") {
		t.Fatalf("storage mismatch: %x", v)
	}
	if _, err := genesis.Commit(db); err == nil {
		t.Fatalf("expected error committing genesis twice")
	}
}

func TestGenesisNoConfig(t *testing.T) {
	if _, _, err := SetupGenesisBlock(rawdb.NewMemoryDatabase(), &Genesis{}); err == nil {
		t.Fatalf("expected error for genesis without config")
	}
}
