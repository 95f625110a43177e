package types

import (
	"bytes"
	"encoding/json"
	"math/big"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/tos-network/todochain/common"
)

func TestReceiptDeriveFields(t *testing.T) {
	to := common.HexToAddress("0x01")
	txs := Transactions{
		NewTransaction(1, to, big.NewInt(1), 1, big.NewInt(1), nil),
		NewTransaction(2, to, big.NewInt(2), 2, big.NewInt(2), nil),
	}
	receipts := Receipts{
		{
			Status:            ReceiptStatusFailed,
			CumulativeGasUsed: 1,
			Logs:              []*Log{{Address: common.BytesToAddress([]byte{0x11})}, {Address: common.BytesToAddress([]byte{0x01, 0x11})}},
			RevertReason:      []byte{0x08, 0xc3, 0x79, 0xa0},
		},
		{
			Status:            ReceiptStatusSuccessful,
			CumulativeGasUsed: 3,
			Logs:              []*Log{{Address: common.BytesToAddress([]byte{0x22})}},
		},
	}
	blockHash := common.BytesToHash([]byte{0x03, 0x14})
	before := DeriveSha(receipts)
	if err := receipts.DeriveFields(blockHash, 7, txs); err != nil {
		t.Fatalf("DeriveFields(...) = %v, want <nil>", err)
	}
	if after := DeriveSha(receipts); after != before {
		t.Fatalf("receipt commitment changed after deriving inclusion fields")
	}
	logIndex := uint(0)
	for i, r := range receipts {
		if r.TxHash != txs[i].Hash() {
			t.Errorf("receipts[%d].TxHash = %s, want %s", i, r.TxHash, txs[i].Hash())
		}
		if r.BlockHash != blockHash || r.BlockNumber.Uint64() != 7 {
			t.Errorf("receipts[%d] inclusion mismatch", i)
		}
		for _, l := range r.Logs {
			if l.Index != logIndex || l.TxIndex != uint(i) || l.TxHash != r.TxHash {
				t.Errorf("receipts[%d] log derived fields mismatch: %s", i, spew.Sdump(l))
			}
			logIndex++
		}
	}
	if receipts[1].GasUsed != 2 {
		t.Errorf("receipts[1].GasUsed = %d, want 2", receipts[1].GasUsed)
	}
}

func TestReceiptJSON(t *testing.T) {
	r := &Receipt{
		Status:            ReceiptStatusFailed,
		CumulativeGasUsed: 21000,
		Logs:              []*Log{},
		GasUsed:           21000,
		RevertReason:      []byte{0xde, 0xad},
		BlockNumber:       big.NewInt(4),
	}
	enc, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var dec Receipt
	if err := json.Unmarshal(enc, &dec); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dec.RevertReason, r.RevertReason) {
		t.Fatalf("revert reason lost: %x", dec.RevertReason)
	}
	if !reflect.DeepEqual(&dec, r) {
		t.Fatalf("receipt mismatch:\nhave %s\nwant %s", spew.Sdump(&dec), spew.Sdump(r))
	}
}
