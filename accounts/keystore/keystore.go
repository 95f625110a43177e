// Package keystore stores secp256k1 account keys as scrypt encrypted JSON
// files in a single directory.
package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tos-network/todochain/accounts"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/crypto"
	"github.com/tos-network/todochain/log"
)

// KeyStoreScheme is the protocol scheme prefixing account URLs.
const KeyStoreScheme = "keystore"

var (
	ErrLocked  = errors.New("account is locked")
	ErrNoMatch = errors.New("no key for given address or file")
)

// KeyStore manages a directory of encrypted key files.
type KeyStore struct {
	dir     string
	scryptN int
	scryptP int

	mu       sync.RWMutex
	unlocked map[common.Address]*Key
}

// NewKeyStore creates a keystore for the given directory.
func NewKeyStore(keydir string, scryptN, scryptP int) *KeyStore {
	keydir, _ = filepath.Abs(keydir)
	return &KeyStore{
		dir:      keydir,
		scryptN:  scryptN,
		scryptP:  scryptP,
		unlocked: make(map[common.Address]*Key),
	}
}

// Dir returns the absolute key directory.
func (ks *KeyStore) Dir() string { return ks.dir }

// Accounts lists the accounts found in the key directory, ordered by URL.
// Files that are not key files are skipped.
func (ks *KeyStore) Accounts() ([]accounts.Account, error) {
	entries, err := os.ReadDir(ks.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var accs []accounts.Account
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || strings.HasSuffix(e.Name(), "~") {
			continue
		}
		path := filepath.Join(ks.dir, e.Name())
		addr, err := readAddress(path)
		if err != nil {
			log.Debug("Skipping key file", "path", path, "err", err)
			continue
		}
		accs = append(accs, accounts.Account{
			Address: addr,
			URL:     accounts.URL{Scheme: KeyStoreScheme, Path: path},
		})
	}
	sort.Slice(accs, func(i, j int) bool { return accs[i].URL.Cmp(accs[j].URL) < 0 })
	return accs, nil
}

// Find resolves the key file of the given address.
func (ks *KeyStore) Find(addr common.Address) (accounts.Account, error) {
	accs, err := ks.Accounts()
	if err != nil {
		return accounts.Account{}, err
	}
	for _, a := range accs {
		if a.Address == addr {
			return a, nil
		}
	}
	return accounts.Account{}, ErrNoMatch
}

// HasAddress reports whether a key for the given address is present.
func (ks *KeyStore) HasAddress(addr common.Address) bool {
	_, err := ks.Find(addr)
	return err == nil
}

// NewAccount generates a new key and stores it encrypted with passphrase.
func (ks *KeyStore) NewAccount(passphrase string) (accounts.Account, error) {
	key, err := newKey()
	if err != nil {
		return accounts.Account{}, err
	}
	return ks.storeKey(key, passphrase)
}

// ImportECDSA stores the given key into the key directory, encrypting it
// with the passphrase.
func (ks *KeyStore) ImportECDSA(priv *crypto.PrivateKey, passphrase string) (accounts.Account, error) {
	key := newKeyFromECDSA(priv)
	if ks.HasAddress(key.Address) {
		return accounts.Account{}, fmt.Errorf("account already exists: %s", key.Address)
	}
	return ks.storeKey(key, passphrase)
}

func (ks *KeyStore) storeKey(key *Key, passphrase string) (accounts.Account, error) {
	keyjson, err := EncryptKey(key, passphrase, ks.scryptN, ks.scryptP)
	if err != nil {
		return accounts.Account{}, err
	}
	path := filepath.Join(ks.dir, keyFileName(key.Address))
	if err := writeKeyFile(path, keyjson); err != nil {
		return accounts.Account{}, err
	}
	log.Info("Stored new key", "address", key.Address, "path", path)
	return accounts.Account{Address: key.Address, URL: accounts.URL{Scheme: KeyStoreScheme, Path: path}}, nil
}

// GetKey loads and decrypts the key of the given account.
func (ks *KeyStore) GetKey(a accounts.Account, passphrase string) (*Key, error) {
	if a.URL.Path == "" {
		found, err := ks.Find(a.Address)
		if err != nil {
			return nil, err
		}
		a = found
	}
	keyjson, err := os.ReadFile(a.URL.Path)
	if err != nil {
		return nil, err
	}
	key, err := DecryptKey(keyjson, passphrase)
	if err != nil {
		return nil, err
	}
	if key.Address != a.Address {
		return nil, fmt.Errorf("key content mismatch: have account %x, want %x", key.Address, a.Address)
	}
	return key, nil
}

// Unlock decrypts the key of the account and keeps it in memory until Lock.
func (ks *KeyStore) Unlock(a accounts.Account, passphrase string) error {
	key, err := ks.GetKey(a, passphrase)
	if err != nil {
		return err
	}
	ks.mu.Lock()
	ks.unlocked[a.Address] = key
	ks.mu.Unlock()
	return nil
}

// Lock removes the decrypted key of the address from memory.
func (ks *KeyStore) Lock(addr common.Address) {
	ks.mu.Lock()
	delete(ks.unlocked, addr)
	ks.mu.Unlock()
}

// SignTx signs the transaction with the unlocked key of the account.
func (ks *KeyStore) SignTx(a accounts.Account, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	ks.mu.RLock()
	key, ok := ks.unlocked[a.Address]
	ks.mu.RUnlock()
	if !ok {
		return nil, ErrLocked
	}
	return types.SignTx(tx, types.NewSigner(chainID), key.PrivateKey)
}

// readAddress peeks at the address field of a key file without decrypting it.
func readAddress(path string) (common.Address, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return common.Address{}, err
	}
	var key struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(raw, &key); err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(key.Address) {
		return common.Address{}, fmt.Errorf("invalid address %q", key.Address)
	}
	return common.HexToAddress(key.Address), nil
}
