package abi

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/common/hexutil"
)

func TestUnpackRevert(t *testing.T) {
	cases := []struct {
		input     string
		expect    string
		expectErr string
	}{
		{"", "", "invalid data for unpacking"},
		{"08c379a1", "", "invalid data for unpacking"},
		{"08c379a00000000000000000000000000000000000000000000000000000000000000020000000000000000000000000000000000000000000000000000000000000000d72657665727420726561736f6e00000000000000000000000000000000000000", "revert reason", ""},
	}
	for index, c := range cases {
		got, err := UnpackRevert(common.Hex2Bytes(c.input))
		if c.expectErr != "" {
			if err == nil {
				t.Fatalf("Expected non-nil error")
			}
			if err.Error() != c.expectErr {
				t.Fatalf("Expected error mismatch, want %s, got %s", c.expectErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("case %d: unexpected error %v", index, err)
		}
		if c.expect != got {
			t.Fatalf("Output mismatch, want %v, got %v", c.expect, got)
		}
	}
}

func TestPackRevertMatchesSolidity(t *testing.T) {
	want := "0x08c379a00000000000000000000000000000000000000000000000000000000000000020000000000000000000000000000000000000000000000000000000000000000d72657665727420726561736f6e00000000000000000000000000000000000000"
	if have := hexutil.Encode(PackRevert("revert reason")); have != want {
		t.Fatalf("encoding mismatch:\nhave %s\nwant %s", have, want)
	}
}

func TestCustomErrorSelector(t *testing.T) {
	e := NewError("OwnableUnauthorizedAccount", AddressTy)
	if e.Sig != "OwnableUnauthorizedAccount(address)" {
		t.Fatalf("signature mismatch: %s", e.Sig)
	}
	// Selector as emitted by OpenZeppelin Ownable v5.
	if have := hexutil.Encode(e.Selector()); have != "0x118cdaa7" {
		t.Fatalf("selector mismatch: have %s want 0x118cdaa7", have)
	}
	caller := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	args, err := e.Unpack(e.Pack(caller))
	if err != nil {
		t.Fatal(err)
	}
	if args[0].(common.Address) != caller {
		t.Fatalf("argument mismatch: %v", args[0])
	}
	if NewError("OwnableInvalidOwner", AddressTy).Matches(e.Pack(caller)) {
		t.Fatalf("selectors of distinct errors should not match")
	}
}

func TestPackUnpackMixed(t *testing.T) {
	types := []Type{Uint256Ty, StringTy, Uint8Ty, AddressTy, StringTy}
	addr := common.HexToAddress("0x01")
	long := string(bytes.Repeat([]byte("x"), 45))
	enc, err := Pack(types, big.NewInt(7), "walk the dog", uint8(1), addr, long)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Unpack(types, enc)
	if err != nil {
		t.Fatal(err)
	}
	if out[0].(*big.Int).Int64() != 7 || out[1].(string) != "walk the dog" || out[2].(uint8) != 1 || out[3].(common.Address) != addr || out[4].(string) != long {
		t.Fatalf("round trip mismatch: %v", out)
	}
	if _, err := Pack([]Type{Uint8Ty}, big.NewInt(256)); err == nil {
		t.Fatalf("expected range error for uint8")
	}
	if _, err := Pack([]Type{Uint256Ty}, big.NewInt(-1)); err == nil {
		t.Fatalf("expected range error for negative integer")
	}
	if _, err := Unpack(types, enc[:40]); err == nil {
		t.Fatalf("expected error for truncated data")
	}
}

func TestEventPackUnpack(t *testing.T) {
	ev := NewEvent("UpdateTodo",
		Argument{Name: "index", Type: Uint256Ty, Indexed: true},
		Argument{Name: "status", Type: Uint8Ty},
		Argument{Name: "todoDefinition", Type: StringTy},
	)
	if ev.Sig != "UpdateTodo(uint256,uint8,string)" {
		t.Fatalf("signature mismatch: %s", ev.Sig)
	}
	topics, data, err := ev.Pack(big.NewInt(3), uint8(1), "done")
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 2 || topics[0] != ev.ID || topics[1].Big().Int64() != 3 {
		t.Fatalf("topics mismatch: %v", topics)
	}
	out, err := ev.Unpack(topics, data)
	if err != nil {
		t.Fatal(err)
	}
	if out[0].(*big.Int).Int64() != 3 {
		t.Fatalf("index mismatch: %v", out[0])
	}
	if out[1].(uint8) != 1 || out[2].(string) != "done" {
		t.Fatalf("data mismatch: %v", out)
	}
	if _, err := ev.Unpack([]common.Hash{{}}, data); err == nil {
		t.Fatalf("expected signature mismatch error")
	}
}
