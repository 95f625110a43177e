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

package types

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/common/hexutil"
)

const (
	testLogContract = "0x5fbdb2315678afecb367f032d93f642f64180aa3"
	testLogBlock    = "0x656c34545f90a730a19008c0e7a7cd4fb3895064b48d6d69761bd5abad681056"
	testLogTx       = "0x3b198bfd5d2907285af009e9ae84a0ecd63677110d89d7e030251acb87f6487e"
	// An event signature topic followed by an indexed todo index of 2.
	testLogTopic0 = "0x3f1b9fcd2b4e4d8f8b2e5cb0b1a7b5a4d3c8e2f6a1b0c9d8e7f6a5b4c3d2e1f0"
	testLogTopic1 = "0x0000000000000000000000000000000000000000000000000000000000000002"
)

var unmarshalLogTests = map[string]struct {
	input     string
	want      *Log
	wantError error
}{
	"ok": {
		input: `{"address":"` + testLogContract + `","blockHash":"` + testLogBlock + `","blockNumber":"0x1c","data":"0x11223344556677889900aabbccddeeff","logIndex":"0x2","topics":["` + testLogTopic0 + `","` + testLogTopic1 + `"],"transactionHash":"` + testLogTx + `","transactionIndex":"0x3"}`,
		want: &Log{
			Address:     common.HexToAddress(testLogContract),
			BlockHash:   common.HexToHash(testLogBlock),
			BlockNumber: 28,
			Data:        hexutil.MustDecode("0x11223344556677889900aabbccddeeff"),
			Index:       2,
			TxIndex:     3,
			TxHash:      common.HexToHash(testLogTx),
			Topics:      []common.Hash{common.HexToHash(testLogTopic0), common.HexToHash(testLogTopic1)},
		},
	},
	"empty data": {
		input: `{"address":"` + testLogContract + `","blockHash":"` + testLogBlock + `","blockNumber":"0x1c","data":"0x","logIndex":"0x2","topics":["` + testLogTopic0 + `"],"transactionHash":"` + testLogTx + `","transactionIndex":"0x3"}`,
		want: &Log{
			Address:     common.HexToAddress(testLogContract),
			BlockHash:   common.HexToHash(testLogBlock),
			BlockNumber: 28,
			Data:        []byte{},
			Index:       2,
			TxIndex:     3,
			TxHash:      common.HexToHash(testLogTx),
			Topics:      []common.Hash{common.HexToHash(testLogTopic0)},
		},
	},
	"missing block fields (pending logs)": {
		input: `{"address":"` + testLogContract + `","data":"0x","logIndex":"0x0","topics":["` + testLogTopic0 + `"],"transactionHash":"` + testLogTx + `","transactionIndex":"0x3"}`,
		want: &Log{
			Address: common.HexToAddress(testLogContract),
			Data:    []byte{},
			TxIndex: 3,
			TxHash:  common.HexToHash(testLogTx),
			Topics:  []common.Hash{common.HexToHash(testLogTopic0)},
		},
	},
	"Removed: true": {
		input: `{"address":"` + testLogContract + `","data":"0x","logIndex":"0x2","topics":[],"transactionHash":"` + testLogTx + `","transactionIndex":"0x3","removed":true}`,
		want: &Log{
			Address: common.HexToAddress(testLogContract),
			Data:    []byte{},
			Index:   2,
			TxIndex: 3,
			TxHash:  common.HexToHash(testLogTx),
			Topics:  []common.Hash{},
			Removed: true,
		},
	},
	"missing data": {
		input:     `{"address":"` + testLogContract + `","logIndex":"0x2","topics":["` + testLogTopic0 + `"],"transactionHash":"` + testLogTx + `","transactionIndex":"0x3"}`,
		wantError: fmt.Errorf("missing required field 'data' for Log"),
	},
	"missing topics": {
		input:     `{"address":"` + testLogContract + `","data":"0x","logIndex":"0x2","transactionHash":"` + testLogTx + `","transactionIndex":"0x3"}`,
		wantError: fmt.Errorf("missing required field 'topics' for Log"),
	},
	"short address": {
		input:     `{"address":"0x5fbdb2315678afecb367f032d93f642f","data":"0x","topics":[]}`,
		wantError: fmt.Errorf("hex string has length 16, want 20 for common.Address"),
	},
}

func TestUnmarshalLog(t *testing.T) {
	dumper := spew.ConfigState{DisableMethods: true, Indent: "    "}
	for name, test := range unmarshalLogTests {
		var log *Log
		err := json.Unmarshal([]byte(test.input), &log)
		checkError(t, name, err, test.wantError)
		if test.wantError == nil && err == nil {
			if !reflect.DeepEqual(log, test.want) {
				t.Errorf("test %q:\nGOT %sWANT %s", name, dumper.Sdump(log), dumper.Sdump(test.want))
			}
		}
	}
}

func TestMarshalLogWithoutTopics(t *testing.T) {
	enc, err := json.Marshal(&Log{Address: common.HexToAddress(testLogContract)})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, want := range []string{`"topics":[]`, `"data":"0x"`, `"blockNumber":"0x0"`} {
		if !strings.Contains(string(enc), want) {
			t.Errorf("encoding %s misses %s", enc, want)
		}
	}
}

func checkError(t *testing.T, testname string, got, want error) bool {
	if got == nil {
		if want != nil {
			t.Errorf("test %q: got no error, want %q", testname, want)
			return false
		}
		return true
	}
	if want == nil {
		t.Errorf("test %q: unexpected error %q", testname, got)
	} else if !strings.Contains(got.Error(), want.Error()) {
		t.Errorf("test %q: got error %q, want %q", testname, got, want)
	}
	return false
}
