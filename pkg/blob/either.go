// Copyright 2025 Certen Protocol

package blob

import (
	"context"
	"io"

	"github.com/kepler-network/orbit-core/pkg/khash"
)

// eitherStore composes two stores the way the original implementation's
// storage::either module does: reads and Contains checks try primary then
// fall back to secondary; writes and removals apply to primary only, since
// secondary is treated as a read-through layer (e.g. a shared remote tier
// behind a local cache) rather than a mirrored replica.
type eitherStore struct {
	primary   Store
	secondary Store
}

// Either composes primary and secondary into a single Store.
func Either(primary, secondary Store) Store {
	return &eitherStore{primary: primary, secondary: secondary}
}

func (e *eitherStore) Contains(ctx context.Context, hash khash.Hash) (bool, error) {
	ok, err := e.primary.Contains(ctx, hash)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	return e.secondary.Contains(ctx, hash)
}

func (e *eitherStore) Read(ctx context.Context, hash khash.Hash) (io.ReadCloser, int64, bool, error) {
	r, n, ok, err := e.primary.Read(ctx, hash)
	if err != nil {
		return nil, 0, false, err
	}
	if ok {
		return r, n, true, nil
	}
	return e.secondary.Read(ctx, hash)
}

func (e *eitherStore) Stage(ctx context.Context) (*Staging, error) {
	return e.primary.Stage(ctx)
}

func (e *eitherStore) Persist(ctx context.Context, s *Staging) (khash.Hash, error) {
	return e.primary.Persist(ctx, s)
}

func (e *eitherStore) PersistKeyed(ctx context.Context, s *Staging, expected khash.Hash) error {
	return e.primary.PersistKeyed(ctx, s, expected)
}

func (e *eitherStore) Remove(ctx context.Context, hash khash.Hash) error {
	return e.primary.Remove(ctx, hash)
}
