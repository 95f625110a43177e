// Copyright 2015 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// Package utils contains internal helper functions for todochain commands.
package utils

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/tos-network/todochain/accounts"
	"github.com/tos-network/todochain/accounts/keystore"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core"
	"github.com/tos-network/todochain/internal/flags"
	"github.com/tos-network/todochain/log"
	"github.com/tos-network/todochain/node"
	"github.com/tos-network/todochain/params"
	"github.com/urfave/cli/v2"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// General settings
	DataDirFlag = &cli.PathFlag{
		Name:     "datadir",
		Usage:    "Data directory for the databases and keystore",
		Value:    node.DefaultDataDir(),
		Category: flags.TodoCategory,
	}
	KeyStoreDirFlag = &cli.PathFlag{
		Name:     "keystore",
		Usage:    "Directory for the keystore (default = inside the datadir)",
		Category: flags.AccountCategory,
	}
	ConfigFileFlag = &cli.PathFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.TodoCategory,
	}
	DevFaucetFlag = &cli.StringFlag{
		Name:     "dev.faucet",
		Usage:    "Address funded by the development genesis when the database is empty",
		Category: flags.TodoCategory,
	}

	// Account settings
	LightKDFFlag = &cli.BoolFlag{
		Name:     "lightkdf",
		Usage:    "Reduce key-derivation RAM & CPU usage at some expense of KDF strength",
		Category: flags.AccountCategory,
	}
	PasswordFileFlag = &cli.PathFlag{
		Name:      "password",
		Usage:     "Password file to use for non-interactive password input",
		TakesFile: true,
		Category:  flags.AccountCategory,
	}
	FromFlag = &cli.StringFlag{
		Name:     "from",
		Usage:    "Sending account, as an address or a keystore index",
		Value:    "0",
		Category: flags.AccountCategory,
	}

	// Performance tuning settings
	CacheFlag = &cli.IntFlag{
		Name:     "cache",
		Usage:    "Megabytes of memory allocated to the chain database",
		Value:    node.DefaultConfig.DatabaseCache,
		Category: flags.PerfCategory,
	}

	// Miner settings
	MinerGasLimitFlag = &cli.Uint64Flag{
		Name:     "miner.gaslimit",
		Usage:    "Gas ceiling of sealed blocks",
		Value:    node.DefaultConfig.Miner.GasCeil,
		Category: flags.MinerCategory,
	}
	MinerRecommitIntervalFlag = &cli.DurationFlag{
		Name:     "miner.recommit",
		Usage:    "Sealing interval (0 = seal as soon as a transaction arrives)",
		Value:    node.DefaultConfig.Miner.Recommit,
		Category: flags.MinerCategory,
	}
	MinerCoinbaseFlag = &cli.StringFlag{
		Name:     "miner.coinbase",
		Usage:    "Public address for block sealing rewards",
		Category: flags.MinerCategory,
	}
	GasPriceFlag = &cli.Uint64Flag{
		Name:     "gasprice",
		Usage:    "Gas price in wei suggested to clients",
		Value:    node.DefaultConfig.GasPrice,
		Category: flags.MinerCategory,
	}

	// API settings
	HTTPListenAddrFlag = &cli.StringFlag{
		Name:     "http.addr",
		Usage:    "HTTP API listening interface (empty disables the server)",
		Value:    node.DefaultHTTPHost,
		Category: flags.APICategory,
	}
	HTTPPortFlag = &cli.IntFlag{
		Name:     "http.port",
		Usage:    "HTTP API listening port",
		Value:    node.DefaultHTTPPort,
		Category: flags.APICategory,
	}
	HTTPCORSDomainFlag = &cli.StringFlag{
		Name:     "http.corsdomain",
		Usage:    "Comma separated list of domains from which to accept cross origin requests (browser enforced)",
		Category: flags.APICategory,
	}
	RPCGlobalGasCapFlag = &cli.Uint64Flag{
		Name:     "http.gascap",
		Usage:    "Sets a cap on gas that can be used in calls and estimates (0=infinite)",
		Value:    node.DefaultConfig.API.GasCap,
		Category: flags.APICategory,
	}

	// Client settings
	EndpointFlag = &cli.StringFlag{
		Name:     "endpoint",
		Usage:    "HTTP API endpoint of the node",
		Value:    "http://" + node.DefaultConfig.HTTPEndpoint(),
		EnvVars:  []string{"TODO_ENDPOINT"},
		Category: flags.ClientCategory,
	}
	ContractFlag = &cli.StringFlag{
		Name:     "contract",
		Usage:    "Address of the TodoList contract",
		EnvVars:  []string{"TODO_CONTRACT"},
		Category: flags.ClientCategory,
	}

	// Logging and debug settings
	VerbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value:    int(log.LvlInfo),
		Category: flags.LoggingCategory,
	}
	LogJSONFlag = &cli.BoolFlag{
		Name:     "log.json",
		Usage:    "Format logs with JSON",
		Category: flags.LoggingCategory,
	}

	// Metrics flags
	MetricsEnabledFlag = &cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Enable metrics collection and reporting",
		Category: flags.MetricsCategory,
	}
	MetricsHTTPFlag = &cli.StringFlag{
		Name:     "metrics.addr",
		Usage:    "Enable stand-alone metrics HTTP server listening interface",
		Value:    node.DefaultConfig.Metrics.HTTP,
		Category: flags.MetricsCategory,
	}
	MetricsPortFlag = &cli.IntFlag{
		Name:     "metrics.port",
		Usage:    "Metrics HTTP server listening port",
		Value:    node.DefaultConfig.Metrics.Port,
		Category: flags.MetricsCategory,
	}
)

var (
	// NodeFlags configure a node started by `todo serve`.
	NodeFlags = []cli.Flag{
		DataDirFlag,
		KeyStoreDirFlag,
		ConfigFileFlag,
		DevFaucetFlag,
		CacheFlag,
		MinerGasLimitFlag,
		MinerRecommitIntervalFlag,
		MinerCoinbaseFlag,
		GasPriceFlag,
		HTTPListenAddrFlag,
		HTTPPortFlag,
		HTTPCORSDomainFlag,
		RPCGlobalGasCapFlag,
		MetricsEnabledFlag,
		MetricsHTTPFlag,
		MetricsPortFlag,
	}

	// LoggingFlags are accepted by every command.
	LoggingFlags = []cli.Flag{
		VerbosityFlag,
		LogJSONFlag,
	}
)

// SetupLogging routes the root logger according to the logging flags.
func SetupLogging(ctx *cli.Context) error {
	lvl := log.Lvl(ctx.Int(VerbosityFlag.Name))
	if lvl < log.LvlCrit || lvl > log.LvlTrace {
		return fmt.Errorf("invalid verbosity %d", lvl)
	}
	log.SetupDefaultHandler(lvl, ctx.Bool(LogJSONFlag.Name))
	return nil
}

// MakeDataDir retrieves the currently requested data directory, terminating
// if none (or the empty string) is specified.
func MakeDataDir(ctx *cli.Context) string {
	if path := ctx.Path(DataDirFlag.Name); path != "" {
		return flags.ExpandPath(path)
	}
	Fatalf("Cannot determine default data directory, please set manually (--datadir)")
	return ""
}

// SplitAndTrim splits input separated by a comma
// and trims excessive white space from the substrings.
func SplitAndTrim(input string) (ret []string) {
	l := strings.Split(input, ",")
	for _, r := range l {
		if r = strings.TrimSpace(r); r != "" {
			ret = append(ret, r)
		}
	}
	return ret
}

// MakeAddress converts an account specified directly as a hex encoded string or
// a key index in the key store to an internal account representation.
func MakeAddress(ks *keystore.KeyStore, account string) (accounts.Account, error) {
	// If the specified account is a valid address, return it
	if common.IsHexAddress(account) {
		return ks.Find(common.HexToAddress(account))
	}
	// Otherwise try to interpret the account as a keystore index
	index, err := strconv.Atoi(account)
	if err != nil || index < 0 {
		return accounts.Account{}, fmt.Errorf("invalid account address or index %q", account)
	}
	accs, err := ks.Accounts()
	if err != nil {
		return accounts.Account{}, err
	}
	if len(accs) <= index {
		return accounts.Account{}, fmt.Errorf("index %d higher than number of accounts %d", index, len(accs))
	}
	return accs[index], nil
}

// MakePasswordList reads password lines from the file specified by the global --password flag.
func MakePasswordList(ctx *cli.Context) []string {
	path := ctx.Path(PasswordFileFlag.Name)
	if path == "" {
		return nil
	}
	text, err := os.ReadFile(path)
	if err != nil {
		Fatalf("Failed to read password file: %v", err)
	}
	lines := strings.Split(string(text), "\n")
	// Sanitise DOS line endings.
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines
}

// MakeKeyStore opens the keystore of the configured data directory.
func MakeKeyStore(ctx *cli.Context, cfg *node.Config) *keystore.KeyStore {
	scryptN, scryptP := keystore.StandardScryptN, keystore.StandardScryptP
	if ctx.Bool(LightKDFFlag.Name) {
		scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
	}
	dir := cfg.KeyDirConfig()
	if dir == "" {
		Fatalf("No keystore directory, set --datadir or --keystore")
	}
	return keystore.NewKeyStore(dir, scryptN, scryptP)
}

// SetNodeConfig applies node-related command line flags to the config.
func SetNodeConfig(ctx *cli.Context, cfg *node.Config) {
	setDataDir(ctx, cfg)
	setHTTP(ctx, cfg)
	setMiner(ctx, cfg)
	setMetrics(ctx, cfg)

	if ctx.IsSet(KeyStoreDirFlag.Name) {
		cfg.KeyStoreDir = flags.ExpandPath(ctx.Path(KeyStoreDirFlag.Name))
	}
	if ctx.IsSet(CacheFlag.Name) {
		cfg.DatabaseCache = ctx.Int(CacheFlag.Name)
	}
	if ctx.IsSet(GasPriceFlag.Name) {
		cfg.GasPrice = ctx.Uint64(GasPriceFlag.Name)
	}
	if ctx.IsSet(DevFaucetFlag.Name) {
		faucet := ctx.String(DevFaucetFlag.Name)
		if !common.IsHexAddress(faucet) {
			Fatalf("Invalid faucet address %q", faucet)
		}
		cfg.Genesis = core.DeveloperGenesisBlock(cfg.Miner.GasCeil, common.HexToAddress(faucet))
	}
}

func setDataDir(ctx *cli.Context, cfg *node.Config) {
	if ctx.IsSet(DataDirFlag.Name) {
		cfg.DataDir = flags.ExpandPath(ctx.Path(DataDirFlag.Name))
	}
}

func setHTTP(ctx *cli.Context, cfg *node.Config) {
	if ctx.IsSet(HTTPListenAddrFlag.Name) {
		cfg.HTTPHost = ctx.String(HTTPListenAddrFlag.Name)
	}
	if ctx.IsSet(HTTPPortFlag.Name) {
		cfg.HTTPPort = ctx.Int(HTTPPortFlag.Name)
	}
	if ctx.IsSet(HTTPCORSDomainFlag.Name) {
		cfg.API.CorsAllowedOrigins = SplitAndTrim(ctx.String(HTTPCORSDomainFlag.Name))
	}
	if ctx.IsSet(RPCGlobalGasCapFlag.Name) {
		cfg.API.GasCap = ctx.Uint64(RPCGlobalGasCapFlag.Name)
	}
}

func setMiner(ctx *cli.Context, cfg *node.Config) {
	if ctx.IsSet(MinerGasLimitFlag.Name) {
		cfg.Miner.GasCeil = ctx.Uint64(MinerGasLimitFlag.Name)
	}
	if ctx.IsSet(MinerRecommitIntervalFlag.Name) {
		cfg.Miner.Recommit = ctx.Duration(MinerRecommitIntervalFlag.Name)
	}
	if ctx.IsSet(MinerCoinbaseFlag.Name) {
		coinbase := ctx.String(MinerCoinbaseFlag.Name)
		if !common.IsHexAddress(coinbase) {
			Fatalf("Invalid miner coinbase %q", coinbase)
		}
		cfg.Miner.Coinbase = common.HexToAddress(coinbase)
	}
}

func setMetrics(ctx *cli.Context, cfg *node.Config) {
	if ctx.IsSet(MetricsEnabledFlag.Name) {
		cfg.Metrics.Enabled = ctx.Bool(MetricsEnabledFlag.Name)
	}
	if ctx.IsSet(MetricsHTTPFlag.Name) {
		cfg.Metrics.HTTP = ctx.String(MetricsHTTPFlag.Name)
	}
	if ctx.IsSet(MetricsPortFlag.Name) {
		cfg.Metrics.Port = ctx.Int(MetricsPortFlag.Name)
	}
}

// ParseAmount parses a decimal TOS amount such as "0.01".
func ParseAmount(s string) (*big.Int, error) {
	amount, err := params.ParseTOS(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %v", s, err)
	}
	return amount, nil
}
