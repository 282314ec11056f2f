// Copyright 2025 Certen Protocol

package blob

import (
	"bytes"
	"context"
	"io"

	"github.com/kepler-network/orbit-core/pkg/khash"
)

// KV is the narrow byte-oriented store every blob.Store implementation in
// this package is built over, matching the teacher's ledger.KV shape
// (Get/Set) generalized with Has/Delete so Contains and Remove don't need a
// full read.
type KV interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Set(key, value []byte) error
	Delete(key []byte) error
}

// kvStore adapts any KV into a content-addressed blob.Store keyed by hash
// bytes.
type kvStore struct {
	kv KV
}

// NewKVStore wraps kv as a blob.Store.
func NewKVStore(kv KV) Store {
	return &kvStore{kv: kv}
}

func (s *kvStore) Contains(_ context.Context, hash khash.Hash) (bool, error) {
	return s.kv.Has(hash.Bytes())
}

func (s *kvStore) Read(_ context.Context, hash khash.Hash) (io.ReadCloser, int64, bool, error) {
	v, err := s.kv.Get(hash.Bytes())
	if err != nil {
		return nil, 0, false, err
	}
	if v == nil {
		return nil, 0, false, nil
	}
	return io.NopCloser(bytes.NewReader(v)), int64(len(v)), true, nil
}

func (s *kvStore) Stage(_ context.Context) (*Staging, error) {
	return NewStaging(), nil
}

func (s *kvStore) Persist(_ context.Context, staged *Staging) (khash.Hash, error) {
	h := staged.Hash()
	if err := s.kv.Set(h.Bytes(), staged.Bytes()); err != nil {
		return khash.Hash{}, err
	}
	return h, nil
}

func (s *kvStore) PersistKeyed(ctx context.Context, staged *Staging, expected khash.Hash) error {
	if staged.Hash() != expected {
		return ErrHashMismatch
	}
	_, err := s.Persist(ctx, staged)
	return err
}

func (s *kvStore) Remove(_ context.Context, hash khash.Hash) error {
	return s.kv.Delete(hash.Bytes())
}
