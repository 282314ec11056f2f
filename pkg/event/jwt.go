// Copyright 2025 Certen Protocol

package event

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/MicahParks/keyfunc"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/golang-jwt/jwt/v4"
	"github.com/kepler-network/orbit-core/pkg/kerr"
	"github.com/kepler-network/orbit-core/pkg/manifest"
)

// jwtClaims extends the registered claim set with the attenuation and proof
// fields a delegation/invocation envelope carries, per §4.3/§6.
type jwtClaims struct {
	jwt.RegisteredClaims
	Proof       []string         `json:"prf,omitempty"`
	Attenuation []wireCapability `json:"att,omitempty"`
	Op          *wireOperation   `json:"op,omitempty"`
}

// jwtKeyfunc resolves the verification method named by the token's "kid"
// header against the issuer DID named by the "iss" claim, then hands the
// resolved native key to keyfunc's alg-matching GivenKeys machinery rather
// than trusting the token's own alg header blindly.
func jwtKeyfunc(ctx context.Context, resolver manifest.DIDResolver) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		claims, ok := token.Claims.(*jwtClaims)
		if !ok {
			return nil, verificationErr(ReasonInvalidSignature, fmt.Errorf("event: unexpected claims type %T", token.Claims))
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, verificationErr(ReasonInvalidSignature, fmt.Errorf("event: missing kid header"))
		}
		vm, err := resolveSigningKey(ctx, resolver, claims.Issuer, kid)
		if err != nil {
			return nil, err
		}
		key, alg, err := nativeKey(vm)
		if err != nil {
			return nil, err
		}
		given := keyfunc.NewGivenCustomWithOptions(key, keyfunc.GivenKeyOptions{Algorithm: alg})
		return keyfunc.NewGiven(map[string]keyfunc.GivenKey{kid: given}).Keyfunc(token)
	}
}

// nativeKey converts a resolved verification method's raw key material into
// the Go type golang-jwt's signing methods expect, plus the expected alg.
func nativeKey(vm *manifest.VerificationMethod) (interface{}, string, error) {
	switch vm.KeyType {
	case manifest.KeyTypeEd25519:
		if len(vm.Key) != ed25519.PublicKeySize {
			return nil, "", verificationErr(ReasonInvalidSignature, fmt.Errorf("event: wrong ed25519 key length %d", len(vm.Key)))
		}
		return ed25519.PublicKey(vm.Key), "EdDSA", nil
	case manifest.KeyTypeSecp256k1:
		pub, err := secp256k1.ParsePubKey(vm.Key)
		if err != nil {
			return nil, "", verificationErr(ReasonInvalidSignature, err)
		}
		return pub, SigningMethodSecp256k1Name, nil
	default:
		return nil, "", verificationErr(ReasonInvalidSignature, fmt.Errorf("event: unsupported key type %v", vm.KeyType))
	}
}

// parseJWTEnvelope verifies and decodes a compact JWT envelope, returning its
// claims alongside the raw token bytes (hashed as-is, §6).
func parseJWTEnvelope(ctx context.Context, encoded string, resolver manifest.DIDResolver) (*jwtClaims, error) {
	claims := &jwtClaims{}
	// Claims validation is disabled here: temporal validity is checked by
	// checkTemporal against the caller-supplied instant, not the wall clock.
	token, err := jwt.ParseWithClaims(encoded, claims, jwtKeyfunc(ctx, resolver), jwt.WithoutClaimsValidation())
	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok && ve.Inner != nil {
			if kErr, ok := ve.Inner.(*kerr.Error); ok {
				return nil, kErr
			}
		}
		return nil, verificationErr(ReasonInvalidSignature, err)
	}
	if !token.Valid {
		return nil, verificationErr(ReasonInvalidSignature, fmt.Errorf("event: token not valid"))
	}
	if claims.Issuer == "" {
		return nil, parseErr(ReasonMissingDelegator, fmt.Errorf("event: missing iss claim"))
	}
	return claims, nil
}
