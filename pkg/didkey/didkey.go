// Copyright 2025 Certen Protocol
//
// Package didkey provides minimal did:key and did:pkh support: enough to
// stand up a DID resolver for tests and local development without pulling in
// a full external DID-resolution library (those are an explicit non-goal of
// the core; production deployments supply their own manifest.DIDResolver).
package didkey

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/multiformats/go-multibase"
)

// ed25519MulticodecPrefix is the multicodec varint prefix for an ed25519
// public key (0xed, low-byte-first varint encoding).
var ed25519MulticodecPrefix = []byte{0xed, 0x01}

// ErrNotDIDKey is returned when a string is not a well-formed did:key.
var ErrNotDIDKey = errors.New("didkey: not a did:key identifier")

// ErrUnsupportedKeyType is returned when a did:key's multicodec prefix names
// a key type this package does not decode.
var ErrUnsupportedKeyType = errors.New("didkey: unsupported key multicodec")

// EncodeEd25519 renders an ed25519 public key as a did:key identifier:
// "did:key:" + multibase-base58btc(multicodec-prefix || raw key bytes).
func EncodeEd25519(pub ed25519.PublicKey) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("didkey: ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	payload := make([]byte, 0, len(ed25519MulticodecPrefix)+len(pub))
	payload = append(payload, ed25519MulticodecPrefix...)
	payload = append(payload, pub...)
	encoded, err := multibase.Encode(multibase.Base58BTC, payload)
	if err != nil {
		return "", fmt.Errorf("didkey: multibase encode: %w", err)
	}
	return "did:key:" + encoded, nil
}

// DecodeEd25519 recovers the ed25519 public key embedded in a did:key.
func DecodeEd25519(did string) (ed25519.PublicKey, error) {
	const prefix = "did:key:"
	if len(did) <= len(prefix) || did[:len(prefix)] != prefix {
		return nil, ErrNotDIDKey
	}
	_, payload, err := multibase.Decode(did[len(prefix):])
	if err != nil {
		return nil, fmt.Errorf("didkey: multibase decode: %w", err)
	}
	if len(payload) < 2 || payload[0] != ed25519MulticodecPrefix[0] || payload[1] != ed25519MulticodecPrefix[1] {
		return nil, ErrUnsupportedKeyType
	}
	key := payload[2:]
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("didkey: embedded key has %d bytes, want %d", len(key), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(key), nil
}
