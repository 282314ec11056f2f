// Copyright 2025 Certen Protocol

package didkey

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/mr-tron/base58"
)

// EncodePkh renders a secp256k1 public key as a did:pkh identifier using a
// chain-namespace prefix (e.g. "eip155:1") and a base58-encoded compressed
// key as the method-specific account reference. Real did:pkh deployments
// derive a chain-specific address; this module needs only a stable,
// resolvable identifier for its built-in test resolver.
func EncodePkh(namespace string, pub *secp256k1.PublicKey) string {
	compressed := pub.SerializeCompressed()
	return fmt.Sprintf("did:pkh:%s:%s", namespace, base58.Encode(compressed))
}

// DecodePkhKey recovers the compressed secp256k1 public key embedded in a
// did:pkh identifier produced by EncodePkh.
func DecodePkhKey(did string) (*secp256k1.PublicKey, error) {
	const prefix = "did:pkh:"
	if len(did) <= len(prefix) {
		return nil, fmt.Errorf("didkey: %w", ErrNotDIDKey)
	}
	rest := did[len(prefix):]
	idx := lastColon(rest)
	if idx < 0 {
		return nil, fmt.Errorf("didkey: %w", ErrNotDIDKey)
	}
	encoded := rest[idx+1:]
	raw, err := base58.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("didkey: base58 decode: %w", err)
	}
	return secp256k1.ParsePubKey(raw)
}

func lastColon(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			return i
		}
	}
	return -1
}
