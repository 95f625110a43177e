package leveldb

import (
	"testing"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/tos-network/todochain/tosdb"
	"github.com/tos-network/todochain/tosdb/dbtest"
)

func TestLevelDB(t *testing.T) {
	t.Run("DatabaseSuite", func(t *testing.T) {
		dbtest.TestDatabaseSuite(t, func() tosdb.KeyValueStore {
			db, err := leveldb.Open(storage.NewMemStorage(), nil)
			if err != nil {
				t.Fatal(err)
			}
			return &Database{
				db: db,
			}
		})
	})
}

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()
	db, err := New(dir, 0, 0, "test/leveldb/", false)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Put([]byte("todo"), []byte("walk")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	db, err = New(dir, 0, 0, "test/leveldb/", true)
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	defer db.Close()

	if v, err := db.Get([]byte("todo")); err != nil || string(v) != "walk" {
		t.Fatalf("value lost across reopen: have %q (%v)", v, err)
	}
	if db.Path() != dir {
		t.Fatalf("path mismatch: have %s want %s", db.Path(), dir)
	}
}
