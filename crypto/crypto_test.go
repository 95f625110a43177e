package crypto

import (
	"bytes"
	"testing"

	"github.com/tos-network/todochain/common"
)

var testPrivHex = "289c2857d4598e37fb9647507e47a309d6133539bf21a8b9cb6df88fd5232032"

func TestKeccak256Hash(t *testing.T) {
	// keccak256("") is a well known constant.
	want := common.HexToHash("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
	if got := Keccak256Hash(nil); got != want {
		t.Fatalf("keccak of empty input mismatch: have %x want %x", got, want)
	}
	if got := Keccak256([]byte("a"), []byte("b")); !bytes.Equal(got, Keccak256([]byte("ab"))) {
		t.Fatalf("multi-part keccak differs from concatenated keccak")
	}
}

func TestSignAndRecover(t *testing.T) {
	key, err := HexToECDSA(testPrivHex)
	if err != nil {
		t.Fatalf("failed to parse key: %v", err)
	}
	addr := PubkeyToAddress(key.PubKey())
	msg := Keccak256([]byte("todo"))

	sig, err := Sign(msg, key)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if len(sig) != SignatureLength {
		t.Fatalf("signature length mismatch: have %d want %d", len(sig), SignatureLength)
	}
	pub, err := SigToPub(msg, sig)
	if err != nil {
		t.Fatalf("recover failed: %v", err)
	}
	if have := PubkeyToAddress(pub); have != addr {
		t.Fatalf("recovered address mismatch: have %x want %x", have, addr)
	}
	if _, err := Sign(msg[:31], key); err == nil {
		t.Fatalf("expected error on short digest")
	}
}

func TestCreateAddressDependsOnNonce(t *testing.T) {
	deployer := common.HexToAddress("0x970e8128ab834e8eac17ab8e3812f010678cf791")
	a0 := CreateAddress(deployer, 0)
	a1 := CreateAddress(deployer, 1)
	if a0 == a1 {
		t.Fatalf("contract addresses should differ by nonce")
	}
	if a0 != CreateAddress(deployer, 0) {
		t.Fatalf("contract address derivation is not deterministic")
	}
}

func TestHexToECDSARejectsGarbage(t *testing.T) {
	if _, err := HexToECDSA("zz"); err == nil {
		t.Fatalf("expected error for invalid hex")
	}
	if _, err := HexToECDSA("00"); err == nil {
		t.Fatalf("expected error for short key")
	}
}
