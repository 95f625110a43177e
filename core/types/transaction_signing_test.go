package types

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/crypto"
)

func TestSignerRecoversSender(t *testing.T) {
	key, _ := crypto.GenerateKey()
	addr := crypto.PubkeyToAddress(key.PubKey())

	signer := NewSigner(big.NewInt(18))
	tx, err := SignTx(NewTransaction(0, common.Address{}, new(big.Int), 0, new(big.Int), nil), signer, key)
	if err != nil {
		t.Fatal(err)
	}
	from, err := Sender(signer, tx)
	if err != nil {
		t.Fatal(err)
	}
	if from != addr {
		t.Errorf("expected from and address to be equal. Got %x want %x", from, addr)
	}
}

func TestSignerRejectsForeignChain(t *testing.T) {
	key, _ := crypto.GenerateKey()

	tx, err := SignTx(NewTransaction(0, common.Address{}, new(big.Int), 0, new(big.Int), nil), NewSigner(big.NewInt(1)), key)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Sender(NewSigner(big.NewInt(2)), tx); !errors.Is(err, ErrInvalidChainId) {
		t.Fatalf("expected %v, got %v", ErrInvalidChainId, err)
	}
}

func TestTransactionJSONRoundTrip(t *testing.T) {
	key, _ := crypto.GenerateKey()
	signer := NewSigner(big.NewInt(1337))
	to := common.HexToAddress("0x0000000000000000000000000000000000000001")

	tx := MustSignNewTx(key, signer, &TxData{
		Nonce:    3,
		To:       &to,
		Value:    big.NewInt(10_000_000_000_000_000),
		Gas:      100_000,
		GasPrice: big.NewInt(1),
		Data:     []byte(`{"action":"TODO_CREATE"}`),
	})
	enc, err := json.Marshal(tx)
	if err != nil {
		t.Fatal(err)
	}
	var dec Transaction
	if err := json.Unmarshal(enc, &dec); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if dec.Hash() != tx.Hash() {
		t.Fatalf("hash mismatch: have %x want %x", dec.Hash(), tx.Hash())
	}
	from, err := Sender(signer, &dec)
	if err != nil || from != crypto.PubkeyToAddress(key.PubKey()) {
		t.Fatalf("sender mismatch after decode: %x (%v)", from, err)
	}
}

func TestSignatureChangesHashNotSigHash(t *testing.T) {
	key, _ := crypto.GenerateKey()
	signer := NewSigner(big.NewInt(1))
	unsigned := NewTx(&TxData{ChainID: big.NewInt(1), Nonce: 1, Value: new(big.Int), GasPrice: new(big.Int)})
	signed, err := SignTx(unsigned, signer, key)
	if err != nil {
		t.Fatal(err)
	}
	if signer.Hash(unsigned) != signer.Hash(signed) {
		t.Fatalf("signing hash should not depend on the signature")
	}
	if unsigned.Hash() == signed.Hash() {
		t.Fatalf("transaction hash should commit to the signature")
	}
}
