// Copyright 2025 Certen Protocol

package event

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/kepler-network/orbit-core/pkg/khash"
)

// DelegationParams carries the fields needed to build a delegation envelope,
// used by both the signing helpers below and test fixtures.
type DelegationParams struct {
	KeyID     string
	Delegator string
	Delegate  string
	Parents   []khash.Hash
	Grants    []Grant
	NotBefore *time.Time
	Expiry    *time.Time
	IssuedAt  time.Time
}

func hashesToHex(hs []khash.Hash) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.String())
	}
	return out
}

func buildDelegationClaims(p DelegationParams) (*jwtClaims, error) {
	wcs, err := toWireGrants(p.Grants)
	if err != nil {
		return nil, err
	}
	return &jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.Delegator,
			Audience:  jwt.ClaimStrings{p.Delegate},
			IssuedAt:  jwt.NewNumericDate(p.IssuedAt),
			NotBefore: optionalNumericDate(p.NotBefore),
			ExpiresAt: optionalNumericDate(p.Expiry),
		},
		Proof:       hashesToHex(p.Parents),
		Attenuation: wcs,
	}, nil
}

func optionalNumericDate(t *time.Time) *jwt.NumericDate {
	if t == nil {
		return nil
	}
	return jwt.NewNumericDate(*t)
}

// SignDelegationJWTEd25519 builds and signs a compact JWT delegation envelope
// with an ed25519 key, for use by delegators whose DID resolves to an
// ed25519 verification method.
func SignDelegationJWTEd25519(priv ed25519.PrivateKey, p DelegationParams) (string, error) {
	claims, err := buildDelegationClaims(p)
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = p.KeyID
	return token.SignedString(priv)
}

// SignDelegationJWTSecp256k1 is the secp256k1 counterpart of
// SignDelegationJWTEd25519.
func SignDelegationJWTSecp256k1(priv *secp256k1.PrivateKey, p DelegationParams) (string, error) {
	claims, err := buildDelegationClaims(p)
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(SigningMethodSecp256k1, claims)
	token.Header["kid"] = p.KeyID
	return token.SignedString(priv)
}

// InvocationParams carries the fields needed to build an invocation envelope.
type InvocationParams struct {
	KeyID     string
	Invoker   string
	Parents   []khash.Hash
	Grant     Grant
	Operation Operation
	NotBefore *time.Time
	Expiry    *time.Time
	IssuedAt  time.Time
}

func buildInvocationClaims(p InvocationParams) (*jwtClaims, error) {
	wc, err := toWireGrant(p.Grant)
	if err != nil {
		return nil, err
	}
	claims := &jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.Invoker,
			Audience:  jwt.ClaimStrings{p.Invoker},
			IssuedAt:  jwt.NewNumericDate(p.IssuedAt),
			NotBefore: optionalNumericDate(p.NotBefore),
			ExpiresAt: optionalNumericDate(p.Expiry),
		},
		Proof:       hashesToHex(p.Parents),
		Attenuation: []wireCapability{wc},
	}
	if p.Operation != nil {
		wo, err := toWireOperation(p.Operation)
		if err != nil {
			return nil, err
		}
		claims.Op = &wo
	}
	return claims, nil
}

// SignInvocationJWTEd25519 builds and signs a compact JWT invocation envelope
// with an ed25519 key.
func SignInvocationJWTEd25519(priv ed25519.PrivateKey, p InvocationParams) (string, error) {
	claims, err := buildInvocationClaims(p)
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = p.KeyID
	return token.SignedString(priv)
}

// SignInvocationJWTSecp256k1 is the secp256k1 counterpart of
// SignInvocationJWTEd25519.
func SignInvocationJWTSecp256k1(priv *secp256k1.PrivateKey, p InvocationParams) (string, error) {
	claims, err := buildInvocationClaims(p)
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(SigningMethodSecp256k1, claims)
	token.Header["kid"] = p.KeyID
	return token.SignedString(priv)
}

// SignDelegationCBOREd25519 builds a CBOR-wrapped, base64url-encoded
// delegation envelope signed with an ed25519 key.
func SignDelegationCBOREd25519(priv ed25519.PrivateKey, p DelegationParams) (string, error) {
	wcs, err := toWireGrants(p.Grants)
	if err != nil {
		return "", err
	}
	payload := cborDelegationPayload{
		Issuer:       p.Delegator,
		Audience:     p.Delegate,
		KeyID:        p.KeyID,
		Nonce:        uuid.NewString(),
		NotBefore:    timeToUnix(p.NotBefore),
		Expiry:       timeToUnix(p.Expiry),
		IssuedAt:     timeToUnix(&p.IssuedAt),
		Parents:      hashesToHex(p.Parents),
		Capabilities: wcs,
	}
	payloadBytes, err := encodeCBORPayload(payload)
	if err != nil {
		return "", err
	}
	sig := ed25519.Sign(priv, payloadBytes)
	envBytes, err := cborEncMode.Marshal(cborDelegationEnvelope{Payload: payload, Signature: sig})
	if err != nil {
		return "", fmt.Errorf("event: encode cbor envelope: %w", err)
	}
	return encodeBase64URL(envBytes), nil
}

// SignRevocationCBOREd25519 builds a CBOR-wrapped, base64url-encoded
// revocation envelope signed with an ed25519 key.
func SignRevocationCBOREd25519(priv ed25519.PrivateKey, keyID, revoker string, target khash.Hash, issuedAt time.Time) (string, error) {
	payload := cborRevocationPayload{
		Issuer:   revoker,
		Audience: target.String(),
		KeyID:    keyID,
		Nonce:    uuid.NewString(),
		IssuedAt: timeToUnix(&issuedAt),
	}
	payloadBytes, err := encodeCBORPayload(payload)
	if err != nil {
		return "", err
	}
	sig := ed25519.Sign(priv, payloadBytes)
	envBytes, err := cborEncMode.Marshal(cborRevocationEnvelope{Payload: payload, Signature: sig})
	if err != nil {
		return "", fmt.Errorf("event: encode cbor envelope: %w", err)
	}
	return encodeBase64URL(envBytes), nil
}
