// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package params

import (
	"encoding/json"
	"fmt"
	"math/big"
)

var (
	// DevChainConfig is the chain parameters of the single node development
	// network run by `todo serve`.
	DevChainConfig = &ChainConfig{
		ChainID: big.NewInt(1337),
		Dev:     &DevConfig{PeriodMs: 0},
		TodoList: &TodoListConfig{
			DefaultFee: new(big.Int).Set(DefaultTodoFee),
		},
	}

	// TestChainConfig is used by the simulated backend and unit tests.
	TestChainConfig = &ChainConfig{
		ChainID: big.NewInt(31337),
		Dev:     &DevConfig{PeriodMs: 0},
		TodoList: &TodoListConfig{
			DefaultFee: new(big.Int).Set(DefaultTodoFee),
		},
	}
)

// NetworkNames are user friendly names to use in the chain spec banner.
var NetworkNames = map[string]string{
	DevChainConfig.ChainID.String():  "dev",
	TestChainConfig.ChainID.String(): "simulated",
}

// ChainConfig is the core config which determines the blockchain settings.
//
// ChainConfig is stored in the database keyed by the genesis hash. This means
// that any network, identified by its genesis block, can have its own
// set of configuration options.
type ChainConfig struct {
	ChainID *big.Int `json:"chainId"` // chainId identifies the current chain and is used for replay protection

	Dev      *DevConfig      `json:"dev,omitempty"`
	TodoList *TodoListConfig `json:"todolist,omitempty"`
}

// DevConfig is the sealing config of the instant-seal development engine.
type DevConfig struct {
	PeriodMs uint64 `json:"periodMs"` // 0 seals one block per transaction
}

// TodoListConfig holds the deployment defaults of the native TodoList contract.
type TodoListConfig struct {
	// DefaultFee is the creation fee used when a deployment does not name one.
	DefaultFee *big.Int `json:"defaultFee,omitempty"`
}

// UnmarshalJSON rejects unknown sealing fields.
func (c *DevConfig) UnmarshalJSON(input []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(input, &fields); err != nil {
		return err
	}
	if _, ok := fields["period"]; ok {
		return fmt.Errorf("dev.period is not supported; use dev.periodMs")
	}
	type devConfigAlias DevConfig
	var dec devConfigAlias
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	*c = DevConfig(dec)
	return nil
}

// String implements the stringer interface, returning the sealing details.
func (c *DevConfig) String() string {
	return fmt.Sprintf("{periodMs: %d}", c.PeriodMs)
}

// TodoFee returns the configured default creation fee, falling back to
// DefaultTodoFee.
func (c *ChainConfig) TodoFee() *big.Int {
	if c == nil || c.TodoList == nil || c.TodoList.DefaultFee == nil {
		return new(big.Int).Set(DefaultTodoFee)
	}
	return new(big.Int).Set(c.TodoList.DefaultFee)
}

// String implements the fmt.Stringer interface.
func (c *ChainConfig) String() string {
	var banner string

	network := NetworkNames[c.ChainID.String()]
	if network == "" {
		network = "unknown"
	}
	banner += fmt.Sprintf("Chain ID:  %v (%s)\n", c.ChainID, network)
	if c.Dev != nil {
		banner += fmt.Sprintf("Sealing:   instant (%v)\n", c.Dev)
	} else {
		banner += "Sealing:   unknown\n"
	}
	banner += fmt.Sprintf("Todo fee:  %v wei", c.TodoFee())
	return banner
}

// CheckCompatible checks whether a stored chain configuration can be replaced
// by newcfg at the given height.
func (c *ChainConfig) CheckCompatible(newcfg *ChainConfig, height uint64) *ConfigCompatError {
	if !configNumEqual(c.ChainID, newcfg.ChainID) {
		return &ConfigCompatError{
			What:         "chain ID",
			StoredConfig: c.ChainID,
			NewConfig:    newcfg.ChainID,
			RewindTo:     0,
			Fatal:        true,
		}
	}
	// Contracts deployed before the change keep their own fee, so the
	// default may only change while the chain is still empty.
	if height > 0 && !configNumEqual(c.TodoFee(), newcfg.TodoFee()) {
		return &ConfigCompatError{
			What:         "todolist default fee",
			StoredConfig: c.TodoFee(),
			NewConfig:    newcfg.TodoFee(),
			RewindTo:     0,
		}
	}
	return nil
}

func configNumEqual(x, y *big.Int) bool {
	if x == nil {
		return y == nil
	}
	if y == nil {
		return x == nil
	}
	return x.Cmp(y) == 0
}

// ConfigCompatError is raised if the locally-stored blockchain is initialised with a
// ChainConfig that would alter the past.
type ConfigCompatError struct {
	What string
	// values of the stored and new configurations
	StoredConfig, NewConfig *big.Int
	// the block number to which the local chain must be rewound to correct the error
	RewindTo uint64
	// Fatal marks parameters whose mismatch must block node startup.
	Fatal bool
}

func (err *ConfigCompatError) Error() string {
	return fmt.Sprintf("mismatching %s in database (have %d, want %d, rewindto %d)", err.What, err.StoredConfig, err.NewConfig, err.RewindTo)
}
