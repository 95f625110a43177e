// Copyright 2017 The go-ethereum Authors
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
	"math/big"
	"strings"
	"testing"
)

func TestDefaultTodoFee(t *testing.T) {
	want, _ := new(big.Int).SetString("10000000000000000", 10)
	if DefaultTodoFee.Cmp(want) != 0 {
		t.Fatalf("default fee mismatch: have %v want %v", DefaultTodoFee, want)
	}
	if (&ChainConfig{ChainID: big.NewInt(1)}).TodoFee().Cmp(want) != 0 {
		t.Fatalf("missing todolist config should fall back to the default fee")
	}
}

func TestCheckCompatible(t *testing.T) {
	type test struct {
		stored, new *ChainConfig
		height      uint64
		wantErr     string
		wantFatal   bool
	}
	higherFee := &ChainConfig{ChainID: big.NewInt(1337), TodoList: &TodoListConfig{DefaultFee: big.NewInt(1)}}
	tests := []test{
		{stored: DevChainConfig, new: DevChainConfig, height: 0},
		{stored: DevChainConfig, new: DevChainConfig, height: 100},
		{stored: DevChainConfig, new: higherFee, height: 0},
		{stored: DevChainConfig, new: higherFee, height: 10, wantErr: "todolist default fee"},
		{stored: DevChainConfig, new: TestChainConfig, height: 0, wantErr: "chain ID", wantFatal: true},
	}
	for i, tt := range tests {
		err := tt.stored.CheckCompatible(tt.new, tt.height)
		if tt.wantErr == "" {
			if err != nil {
				t.Errorf("test %d: unexpected error: %v", i, err)
			}
			continue
		}
		if err == nil || err.What != tt.wantErr || err.Fatal != tt.wantFatal {
			t.Errorf("test %d: error mismatch: have %v want %q (fatal %v)", i, err, tt.wantErr, tt.wantFatal)
		}
	}
}

func TestDevConfigRejectsLegacyPeriod(t *testing.T) {
	var cfg ChainConfig
	err := json.Unmarshal([]byte(`{"chainId":1,"dev":{"period":5}}`), &cfg)
	if err == nil || !strings.Contains(err.Error(), "dev.periodMs") {
		t.Fatalf("expected legacy period rejection, got %v", err)
	}
	if err := json.Unmarshal([]byte(`{"chainId":1,"dev":{"periodMs":500}}`), &cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dev.PeriodMs != 500 {
		t.Fatalf("periodMs mismatch: have %d want 500", cfg.Dev.PeriodMs)
	}
}

func TestVersionWithCommit(t *testing.T) {
	if v := VersionWithCommit("0123456789abcdef", "20240101"); v != VersionWithMeta+"-01234567" {
		t.Fatalf("version mismatch: %s", v)
	}
}
