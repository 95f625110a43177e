package keystore

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/crypto"
)

const testPass = "foo"

func newTestKeyStore(t *testing.T) *KeyStore {
	return NewKeyStore(t.TempDir(), LightScryptN, LightScryptP)
}

func TestEncryptDecryptKey(t *testing.T) {
	key, err := newKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	keyjson, err := EncryptKey(key, testPass, LightScryptN, LightScryptP)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := DecryptKey(keyjson, "bar"); err != ErrDecrypt {
		t.Fatalf("wrong passphrase: have %v, want %v", err, ErrDecrypt)
	}
	dec, err := DecryptKey(keyjson, testPass)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if dec.Address != key.Address || dec.Id != key.Id {
		t.Fatalf("decrypted key mismatch: have %x/%v, want %x/%v", dec.Address, dec.Id, key.Address, key.Id)
	}
}

func TestPlainKeyJSON(t *testing.T) {
	key, err := newKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	enc, err := key.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	dec := new(Key)
	if err := dec.UnmarshalJSON(enc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if dec.Address != key.Address || crypto.PubkeyToAddress(dec.PrivateKey.PubKey()) != key.Address {
		t.Fatalf("plain key round trip lost the private key")
	}
}

func TestNewAccountAndList(t *testing.T) {
	ks := newTestKeyStore(t)
	if accs, err := ks.Accounts(); err != nil || len(accs) != 0 {
		t.Fatalf("fresh keystore: have %d accounts, err %v", len(accs), err)
	}
	a, err := ks.NewAccount(testPass)
	if err != nil {
		t.Fatalf("new account failed: %v", err)
	}
	if filepath.Dir(a.URL.Path) != ks.Dir() || a.URL.Scheme != KeyStoreScheme {
		t.Fatalf("account stored at unexpected url %v", a.URL)
	}
	// Foreign files in the key directory are ignored.
	if err := os.WriteFile(filepath.Join(ks.Dir(), "README"), []byte("not a key"), 0600); err != nil {
		t.Fatal(err)
	}
	accs, err := ks.Accounts()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(accs) != 1 || accs[0] != a {
		t.Fatalf("unexpected account list %v", accs)
	}
	if !ks.HasAddress(a.Address) {
		t.Fatalf("keystore does not report stored address")
	}
}

func TestImportAndSignTx(t *testing.T) {
	ks := newTestKeyStore(t)
	priv, err := crypto.HexToECDSA("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	if err != nil {
		t.Fatal(err)
	}
	a, err := ks.ImportECDSA(priv, testPass)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if _, err := ks.ImportECDSA(priv, testPass); err == nil {
		t.Fatalf("expected duplicate import to fail")
	}
	chainID := big.NewInt(31337)
	tx := types.NewTx(&types.TxData{
		Nonce:    0,
		To:       &common.Address{0x01},
		Value:    big.NewInt(1),
		Gas:      21000,
		GasPrice: big.NewInt(1),
	})
	if _, err := ks.SignTx(a, tx, chainID); err != ErrLocked {
		t.Fatalf("locked signing: have %v, want %v", err, ErrLocked)
	}
	if err := ks.Unlock(a, "wrong"); err != ErrDecrypt {
		t.Fatalf("unlock with wrong passphrase: have %v, want %v", err, ErrDecrypt)
	}
	if err := ks.Unlock(a, testPass); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	signed, err := ks.SignTx(a, tx, chainID)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	from, err := types.Sender(types.NewSigner(chainID), signed)
	if err != nil || from != a.Address {
		t.Fatalf("recovered sender %x (err %v), want %x", from, err, a.Address)
	}
	ks.Lock(a.Address)
	if _, err := ks.SignTx(a, tx, chainID); err != ErrLocked {
		t.Fatalf("signing after lock: have %v, want %v", err, ErrLocked)
	}
}
