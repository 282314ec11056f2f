// Copyright 2025 Certen Protocol

package didkey

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync"

	"github.com/kepler-network/orbit-core/pkg/manifest"
)

// KeyringResolver is a minimal in-memory manifest.DIDResolver backed by a
// registered set of ed25519 keys, addressed by did:key. It exists for tests
// and local development; production deployments supply a real resolver.
type KeyringResolver struct {
	mu   sync.RWMutex
	docs map[string]*manifest.Document
}

// NewKeyringResolver returns an empty resolver.
func NewKeyringResolver() *KeyringResolver {
	return &KeyringResolver{docs: make(map[string]*manifest.Document)}
}

// RegisterOrbitController registers orbitDID as controlled by a single
// verification method "#keys-1" wrapping pub, authorized as both delegator
// and invoker — the shape a freshly-created orbit's root manifest takes.
func (r *KeyringResolver) RegisterOrbitController(orbitDID string, pub ed25519.PublicKey) {
	vmID := orbitDID + "#keys-1"
	doc := &manifest.Document{
		ID: orbitDID,
		VerificationMethod: []manifest.VerificationMethod{
			{ID: vmID, KeyType: manifest.KeyTypeEd25519, Key: []byte(pub)},
		},
		CapabilityDelegation: []string{vmID},
		CapabilityInvocation: []string{vmID},
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[orbitDID] = doc
}

// RegisterDocument installs an arbitrary document under did, for tests that
// need more than a single verification method.
func (r *KeyringResolver) RegisterDocument(did string, doc *manifest.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[did] = doc
}

// RegisterDocumentJSON parses a raw DID document (the JSON form an external
// resolver returns) via manifest.ParseDocument and installs it under its own
// id.
func (r *KeyringResolver) RegisterDocumentJSON(raw []byte) error {
	doc, err := manifest.ParseDocument(raw)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

// Deactivate marks a previously-registered document as deactivated.
func (r *KeyringResolver) Deactivate(did string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[did]
	if !ok {
		return fmt.Errorf("didkey: %s not registered", did)
	}
	doc.Deactivated = true
	return nil
}

// Resolve implements manifest.DIDResolver.
func (r *KeyringResolver) Resolve(_ context.Context, did string) (*manifest.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.docs[did], nil
}
