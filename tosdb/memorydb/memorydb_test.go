package memorydb

import (
	"testing"

	"github.com/tos-network/todochain/tosdb"
	"github.com/tos-network/todochain/tosdb/dbtest"
)

func TestMemoryDB(t *testing.T) {
	t.Run("DatabaseSuite", func(t *testing.T) {
		dbtest.TestDatabaseSuite(t, func() tosdb.KeyValueStore {
			return New()
		})
	})
}

func TestCopyIsIndependent(t *testing.T) {
	db := New()
	db.Put([]byte("a"), []byte("1"))

	cpy := db.Copy()
	db.Put([]byte("a"), []byte("2"))
	db.Put([]byte("b"), []byte("3"))

	if v, _ := cpy.Get([]byte("a")); string(v) != "1" {
		t.Fatalf("copy observed later write: have %q want %q", v, "1")
	}
	if ok, _ := cpy.Has([]byte("b")); ok {
		t.Fatalf("copy observed later insert")
	}
	if cpy.Len() != 1 {
		t.Fatalf("copy length mismatch: have %d want 1", cpy.Len())
	}
}
