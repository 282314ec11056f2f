// Copyright 2025 Certen Protocol
//
// golang-jwt only ships EdDSA/ECDSA-P256 signing methods out of the box;
// this file adds a secp256k1 method so delegators/invokers keyed the way
// did:pkh accounts are (§C of the design notes) can sign JWT-style envelopes.
package event

import (
	"crypto/sha256"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/golang-jwt/jwt/v4"
)

// SigningMethodSecp256k1Name is the JWT "alg" header value for this method.
const SigningMethodSecp256k1Name = "ES256K"

var errSecp256k1KeyType = errors.New("event: secp256k1 signing method requires a *secp256k1.PrivateKey or *secp256k1.PublicKey")

type signingMethodSecp256k1 struct{}

// SigningMethodSecp256k1 verifies/signs JWT-style envelopes with a
// secp256k1 key over the DER-encoded ECDSA signature of SHA-256(signing
// input), registered under the "ES256K" alg name.
var SigningMethodSecp256k1 = &signingMethodSecp256k1{}

func init() {
	jwt.RegisterSigningMethod(SigningMethodSecp256k1Name, func() jwt.SigningMethod {
		return SigningMethodSecp256k1
	})
}

func (m *signingMethodSecp256k1) Alg() string { return SigningMethodSecp256k1Name }

func (m *signingMethodSecp256k1) Verify(signingString, signature string, key interface{}) error {
	pub, ok := key.(*secp256k1.PublicKey)
	if !ok {
		return errSecp256k1KeyType
	}
	sig, err := jwt.DecodeSegment(signature)
	if err != nil {
		return err
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return err
	}
	digest := sha256.Sum256([]byte(signingString))
	if !parsed.Verify(digest[:], pub) {
		return jwt.ErrSignatureInvalid
	}
	return nil
}

func (m *signingMethodSecp256k1) Sign(signingString string, key interface{}) (string, error) {
	priv, ok := key.(*secp256k1.PrivateKey)
	if !ok {
		return "", errSecp256k1KeyType
	}
	digest := sha256.Sum256([]byte(signingString))
	sig := ecdsa.Sign(priv, digest[:])
	return jwt.EncodeSegment(sig.Serialize()), nil
}
