package main

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/tos-network/todochain/cmd/utils"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core"
	"github.com/tos-network/todochain/log"
	"github.com/tos-network/todochain/params"
	"github.com/tos-network/todochain/tosdb/leveldb"
	"github.com/urfave/cli/v2"
)

var initCommand = &cli.Command{
	Action:    initGenesis,
	Name:      "init",
	Usage:     "Bootstrap and initialize a new genesis block",
	ArgsUsage: "<genesisPath>",
	Flags:     []cli.Flag{utils.DataDirFlag, utils.CacheFlag},
	Description: `
The init command initializes a new genesis block and definition for the chain.
This is a destructive action and changes the chain you will be participating in.

The genesis file is TOML:

    ChainID = 1337
    GasLimit = 30000000
    DefaultFee = "0.01"

    [Alloc]
    0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266 = "10000"

Balances and the default TodoList fee are decimal TOS amounts.`,
}

var errNoChainID = errors.New("genesis has no ChainID")

// genesisSpec is the TOML form of a genesis block.
type genesisSpec struct {
	ChainID    uint64
	Timestamp  uint64            `toml:",omitempty"`
	GasLimit   uint64            `toml:",omitempty"`
	Coinbase   string            `toml:",omitempty"`
	DefaultFee string            `toml:",omitempty"`
	Alloc      map[string]string `toml:",omitempty"`
}

func (s *genesisSpec) toGenesis() (*core.Genesis, error) {
	if s.ChainID == 0 {
		return nil, errNoChainID
	}
	fee := new(big.Int).Set(params.DefaultTodoFee)
	if s.DefaultFee != "" {
		var err error
		if fee, err = utils.ParseAmount(s.DefaultFee); err != nil {
			return nil, fmt.Errorf("DefaultFee: %w", err)
		}
	}
	genesis := &core.Genesis{
		Config: &params.ChainConfig{
			ChainID:  new(big.Int).SetUint64(s.ChainID),
			Dev:      &params.DevConfig{},
			TodoList: &params.TodoListConfig{DefaultFee: fee},
		},
		Timestamp: s.Timestamp,
		GasLimit:  s.GasLimit,
		Alloc:     make(core.GenesisAlloc, len(s.Alloc)),
	}
	if genesis.GasLimit == 0 {
		genesis.GasLimit = params.GenesisGasLimit
	}
	if s.Coinbase != "" {
		if !common.IsHexAddress(s.Coinbase) {
			return nil, fmt.Errorf("invalid coinbase %q", s.Coinbase)
		}
		genesis.Coinbase = common.HexToAddress(s.Coinbase)
	}
	for addr, balance := range s.Alloc {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid alloc address %q", addr)
		}
		amount, err := utils.ParseAmount(balance)
		if err != nil {
			return nil, fmt.Errorf("alloc %s: %w", addr, err)
		}
		genesis.Alloc[common.HexToAddress(addr)] = core.GenesisAccount{Balance: amount}
	}
	return genesis, nil
}

func loadGenesis(file string) (*core.Genesis, error) {
	var spec genesisSpec
	if err := loadConfig(file, &spec); err != nil {
		return nil, err
	}
	return spec.toGenesis()
}

// initGenesis will initialise the given TOML format genesis file and writes it as
// the zero'd block (i.e. genesis) or will fail hard if it can't succeed.
func initGenesis(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		utils.Fatalf("need genesis.toml file as the only argument")
	}
	genesisPath := ctx.Args().First()
	genesis, err := loadGenesis(genesisPath)
	if err != nil {
		utils.Fatalf("invalid genesis file: %v", err)
	}
	cfg := makeConfig(ctx)
	dir := cfg.Node.ChainDir()
	if dir == "" {
		utils.Fatalf("Cannot initialise an in-memory chain, set --datadir")
	}
	db, err := leveldb.New(dir, cfg.Node.DatabaseCache, cfg.Node.DatabaseHandles, "todochain/db/chaindata/", false)
	if err != nil {
		utils.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	_, hash, err := core.SetupGenesisBlock(db, genesis)
	if err != nil {
		utils.Fatalf("Failed to write genesis block: %v", err)
	}
	log.Info("Successfully wrote genesis state", "database", dir, "hash", hash)
	return nil
}
