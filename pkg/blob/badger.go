// Copyright 2025 Certen Protocol

package blob

import (
	"errors"

	badger "github.com/dgraph-io/badger/v2"
)

// badgerKV adapts a *badger.DB to the KV interface.
type badgerKV struct {
	db *badger.DB
}

// NewBadgerStore returns a blob.Store backed by an already-open badger
// database, for single-node durable deployments.
func NewBadgerStore(db *badger.DB) Store {
	return NewKVStore(&badgerKV{db: db})
}

func (b *badgerKV) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	return out, err
}

func (b *badgerKV) Has(key []byte) (bool, error) {
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

func (b *badgerKV) Set(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *badgerKV) Delete(key []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}
