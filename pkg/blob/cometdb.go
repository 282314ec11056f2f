// Copyright 2025 Certen Protocol

package blob

import (
	dbm "github.com/cometbft/cometbft-db"
)

// cometKV adapts a cometbft-db dbm.DB to the KV interface, generalizing the
// teacher's kvdb.KVAdapter (which only exposed Get/Set) with Has/Delete so
// it can back a content-addressed store directly.
type cometKV struct {
	db dbm.DB
}

// NewCometDBStore returns a blob.Store backed by a cometbft-db database,
// reusing the same storage engine the teacher's ledger layer runs on.
func NewCometDBStore(db dbm.DB) Store {
	return NewKVStore(&cometKV{db: db})
}

func (c *cometKV) Get(key []byte) ([]byte, error) {
	return c.db.Get(key)
}

func (c *cometKV) Has(key []byte) (bool, error) {
	return c.db.Has(key)
}

func (c *cometKV) Set(key, value []byte) error {
	return c.db.SetSync(key, value)
}

func (c *cometKV) Delete(key []byte) error {
	return c.db.DeleteSync(key)
}
