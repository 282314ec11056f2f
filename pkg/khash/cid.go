// Copyright 2025 Certen Protocol

package khash

import (
	"fmt"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// Codec tags distinguishing opaque-byte content from structured CBOR content,
// per §4.1 and §6 of the content-addressing design.
const (
	CodecRaw     = 0x55 // raw binary content
	CodecDagCBOR = 0x71 // deterministic CBOR-structured content
)

// ContentID is the self-describing identifier wrapping a Hash with a codec
// tag, so a hash-equal event and its structured wrapping carry distinct ids.
type ContentID struct {
	inner cid.Cid
}

// NewContentID wraps h under the given codec tag (CodecRaw or CodecDagCBOR).
func NewContentID(h Hash, codec uint64) (ContentID, error) {
	mhash, err := mh.Encode(h.Bytes(), mh.SHA2_256)
	if err != nil {
		return ContentID{}, fmt.Errorf("khash: encode multihash: %w", err)
	}
	return ContentID{inner: cid.NewCidV1(codec, mhash)}, nil
}

// Hash recovers the underlying 32-byte digest from the content ID.
func (c ContentID) Hash() (Hash, error) {
	decoded, err := mh.Decode(c.inner.Hash())
	if err != nil {
		return Hash{}, fmt.Errorf("khash: decode multihash: %w", err)
	}
	return FromBytes(decoded.Digest)
}

// Codec returns the content ID's codec tag (CodecRaw or CodecDagCBOR).
func (c ContentID) Codec() uint64 {
	return c.inner.Type()
}

// Bytes returns the canonical binary encoding of the content ID.
func (c ContentID) Bytes() []byte {
	return c.inner.Bytes()
}

// String renders the content ID in its default (base32) multibase form.
func (c ContentID) String() string {
	return c.inner.String()
}

// Equal reports whether two content IDs are identical, including codec tag.
func (c ContentID) Equal(other ContentID) bool {
	return c.inner.Equals(other.inner)
}

// ParseContentID decodes a previously-rendered content ID string.
func ParseContentID(s string) (ContentID, error) {
	parsed, err := cid.Decode(s)
	if err != nil {
		return ContentID{}, fmt.Errorf("khash: decode content id: %w", err)
	}
	return ContentID{inner: parsed}, nil
}

// ContentIDFromBytes decodes a binary-encoded content ID.
func ContentIDFromBytes(b []byte) (ContentID, error) {
	parsed, err := cid.Cast(b)
	if err != nil {
		return ContentID{}, fmt.Errorf("khash: cast content id: %w", err)
	}
	return ContentID{inner: parsed}, nil
}

// Raw wraps h as a raw-codec content ID (content_id(h, raw)).
func Raw(h Hash) (ContentID, error) {
	return NewContentID(h, CodecRaw)
}

// DagCBOR wraps h as a dag-cbor-codec content ID (content_id(h, dag-cbor)).
func DagCBOR(h Hash) (ContentID, error) {
	return NewContentID(h, CodecDagCBOR)
}
