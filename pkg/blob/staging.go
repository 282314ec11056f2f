// Copyright 2025 Certen Protocol

package blob

import (
	"bytes"

	"github.com/kepler-network/orbit-core/pkg/khash"
)

// Staging is a writable sink that hashes content as it's written, mirroring
// the original implementation's HashBuffer. A Store's Stage returns one;
// Persist/PersistKeyed consume it.
type Staging struct {
	buf    bytes.Buffer
	hasher *khash.Hasher
}

// NewStaging wraps an in-memory buffer as a Staging sink. Store
// implementations that stage to disk construct their own Staging-compatible
// flow internally and only need to expose the buffered bytes and hash this
// type already tracks.
func NewStaging() *Staging {
	return &Staging{hasher: khash.NewHasher()}
}

// Write implements io.Writer, updating the running hash as bytes pass
// through.
func (s *Staging) Write(p []byte) (int, error) {
	s.hasher.Update(p)
	return s.buf.Write(p)
}

// Hash returns the digest of everything written so far.
func (s *Staging) Hash() khash.Hash {
	return s.hasher.Finalize()
}

// Bytes returns the staged content. Valid only before the Staging is handed
// to Persist/PersistKeyed.
func (s *Staging) Bytes() []byte {
	return s.buf.Bytes()
}

// Len returns the number of bytes staged so far.
func (s *Staging) Len() int64 {
	return int64(s.buf.Len())
}
