// Copyright 2025 Certen Protocol
//
// Package blob defines the pluggable content-addressed payload store (§4.8):
// writes are hashed as staged and never trusted from the caller, reads are
// returned as an io.ReadCloser (the built-in KV-backed stores load the whole
// value into memory before returning it), and the engine itself never holds
// payload bytes inline in the capability graph or KV tables.
package blob

import (
	"context"
	"io"

	"github.com/kepler-network/orbit-core/pkg/khash"
)

// ErrHashMismatch is returned by PersistKeyed when the staged content's
// actual digest doesn't match the caller's claimed hash.
var ErrHashMismatch = errHashMismatch{}

type errHashMismatch struct{}

func (errHashMismatch) Error() string { return "blob: staged content hash mismatch" }

// Store is a content-addressed blob store. Writes are idempotent by hash:
// persisting the same bytes twice is a no-op the second time.
type Store interface {
	// Contains reports whether hash is already stored.
	Contains(ctx context.Context, hash khash.Hash) (bool, error)

	// Read opens a stream over the content named by hash. The second
	// return value is its length; ok is false if hash isn't stored.
	Read(ctx context.Context, hash khash.Hash) (r io.ReadCloser, length int64, ok bool, err error)

	// Stage opens a writable sink that hashes content as it's written.
	Stage(ctx context.Context) (*Staging, error)

	// Persist finalizes a staged write under its own computed hash.
	Persist(ctx context.Context, s *Staging) (khash.Hash, error)

	// PersistKeyed finalizes a staged write only if its computed hash
	// equals expected; otherwise it returns ErrHashMismatch and discards
	// the staged content.
	PersistKeyed(ctx context.Context, s *Staging, expected khash.Hash) error

	// Remove deletes the content named by hash, if present.
	Remove(ctx context.Context, hash khash.Hash) error
}
