package accounts

import (
	"bytes"
	"testing"

	"github.com/tos-network/todochain/crypto"
)

func TestTextHash(t *testing.T) {
	hash := TextHash([]byte("Hello Joe"))
	want := crypto.Keccak256([]byte("\x19TOS Signed Message:\n9Hello Joe"))
	if !bytes.Equal(hash, want) {
		t.Fatalf("wrong hash: %x", hash)
	}
}
