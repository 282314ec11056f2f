// Copyright 2025 Certen Protocol

package event

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/kepler-network/orbit-core/pkg/manifest"
)

// resolveSigningKey resolves issuerDID's document and looks up the
// verification method named by kid, failing closed on any resolver error,
// deactivation, or missing method.
func resolveSigningKey(ctx context.Context, resolver manifest.DIDResolver, issuerDID, kid string) (*manifest.VerificationMethod, error) {
	if resolver == nil {
		return nil, verificationErr(ReasonResolverFailure, fmt.Errorf("event: nil DID resolver"))
	}
	doc, err := resolver.Resolve(ctx, issuerDID)
	if err != nil {
		return nil, verificationErr(ReasonResolverFailure, err)
	}
	if doc == nil {
		return nil, verificationErr(ReasonResolverFailure, fmt.Errorf("event: no document for %s", issuerDID))
	}
	if doc.Deactivated {
		return nil, verificationErr(ReasonResolverFailure, manifest.ErrDeactivated)
	}
	vm, ok := manifest.LookupVerificationMethod(doc, kid)
	if !ok {
		return nil, verificationErr(ReasonInvalidSignature, fmt.Errorf("event: verification method %s not found", kid))
	}
	return vm, nil
}

// verifyRawSignature checks sig over signingInput using vm's key material,
// for the CBOR envelope path where there is no JWT library to delegate to.
func verifyRawSignature(vm *manifest.VerificationMethod, signingInput, sig []byte) error {
	switch vm.KeyType {
	case manifest.KeyTypeEd25519:
		if len(vm.Key) != ed25519.PublicKeySize {
			return verificationErr(ReasonInvalidSignature, fmt.Errorf("event: wrong ed25519 key length %d", len(vm.Key)))
		}
		if !ed25519.Verify(ed25519.PublicKey(vm.Key), signingInput, sig) {
			return verificationErr(ReasonInvalidSignature, fmt.Errorf("event: ed25519 signature mismatch"))
		}
		return nil
	case manifest.KeyTypeSecp256k1:
		pub, err := secp256k1.ParsePubKey(vm.Key)
		if err != nil {
			return verificationErr(ReasonInvalidSignature, err)
		}
		parsed, err := ecdsa.ParseDERSignature(sig)
		if err != nil {
			return verificationErr(ReasonInvalidSignature, err)
		}
		digest := sha256.Sum256(signingInput)
		if !parsed.Verify(digest[:], pub) {
			return verificationErr(ReasonInvalidSignature, fmt.Errorf("event: secp256k1 signature mismatch"))
		}
		return nil
	default:
		return verificationErr(ReasonInvalidSignature, fmt.Errorf("event: unsupported key type %v", vm.KeyType))
	}
}
