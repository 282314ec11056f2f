// Copyright 2025 Certen Protocol

package event

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/manifest"
)

func claimsTimeToPtr(nd *jwt.NumericDate) *time.Time {
	if nd == nil {
		return nil
	}
	t := nd.Time.UTC()
	return &t
}

func unixToTime(u *int64) *time.Time {
	if u == nil {
		return nil
	}
	t := time.Unix(*u, 0).UTC()
	return &t
}

func timeToUnix(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	u := t.Unix()
	return &u
}

// checkTemporal enforces not-before/expiry validity at instant now, per §4.3
// point 2 and §8's expiry-boundary cases: an event exactly at nbf or strictly
// before exp is valid; equality at exp is expired.
func checkTemporal(now time.Time, notBefore, expiry *time.Time) error {
	if notBefore != nil && now.Before(*notBefore) {
		return temporalErr(ReasonInvalidTime, fmt.Errorf("event: not yet valid (nbf %s, now %s)", notBefore, now))
	}
	if expiry != nil && !now.Before(*expiry) {
		return temporalErr(ReasonInvalidTime, fmt.Errorf("event: expired (exp %s, now %s)", expiry, now))
	}
	return nil
}

func parseHashList(ss []string) ([]khash.Hash, error) {
	out := make([]khash.Hash, 0, len(ss))
	for _, s := range ss {
		h, err := khash.FromHex(s)
		if err != nil {
			return nil, parseErr(ReasonInvalidFields, err)
		}
		out = append(out, h)
	}
	return out, nil
}

// ParseDelegation verifies and normalizes a delegation envelope in either
// wire format, per §4.3.
func ParseDelegation(ctx context.Context, encoded string, resolver manifest.DIDResolver, now time.Time) (*DelegationInfo, error) {
	switch DetectFormat(encoded) {
	case FormatJWT:
		return parseJWTDelegation(ctx, encoded, resolver, now)
	default:
		return parseCBORDelegation(ctx, encoded, resolver, now)
	}
}

// ParseInvocation verifies and normalizes an invocation envelope.
func ParseInvocation(ctx context.Context, encoded string, resolver manifest.DIDResolver, now time.Time) (*InvocationInfo, error) {
	switch DetectFormat(encoded) {
	case FormatJWT:
		return parseJWTInvocation(ctx, encoded, resolver, now)
	default:
		return nil, parseErr(ReasonUnrecognizedFormat, fmt.Errorf("event: invocations are JWT-only"))
	}
}

// ParseRevocation verifies and normalizes a revocation envelope.
func ParseRevocation(ctx context.Context, encoded string, resolver manifest.DIDResolver, now time.Time) (*RevocationInfo, error) {
	switch DetectFormat(encoded) {
	default:
		return parseCBORRevocation(ctx, encoded, resolver, now)
	}
}

func parseJWTDelegation(ctx context.Context, encoded string, resolver manifest.DIDResolver, now time.Time) (*DelegationInfo, error) {
	claims, err := parseJWTEnvelope(ctx, encoded, resolver)
	if err != nil {
		return nil, err
	}
	if len(claims.Audience) == 0 || claims.Audience[0] == "" {
		return nil, parseErr(ReasonMissingDelegate, fmt.Errorf("event: missing aud claim"))
	}
	grants, err := fromWireGrants(claims.Attenuation)
	if err != nil {
		return nil, err
	}
	parents, err := parseHashList(claims.Proof)
	if err != nil {
		return nil, err
	}
	notBefore := claimsTimeToPtr(claims.NotBefore)
	expiry := claimsTimeToPtr(claims.ExpiresAt)
	if err := checkTemporal(now, notBefore, expiry); err != nil {
		return nil, err
	}
	return &DelegationInfo{
		Hash:         khash.Sum([]byte(encoded)),
		Delegator:    claims.Issuer,
		Delegate:     claims.Audience[0],
		Parents:      parents,
		Capabilities: grants,
		NotBefore:    notBefore,
		Expiry:       expiry,
		IssuedAt:     claimsTimeToPtr(claims.IssuedAt),
		Raw:          []byte(encoded),
	}, nil
}

func parseJWTInvocation(ctx context.Context, encoded string, resolver manifest.DIDResolver, now time.Time) (*InvocationInfo, error) {
	claims, err := parseJWTEnvelope(ctx, encoded, resolver)
	if err != nil {
		return nil, err
	}
	if claims.Issuer == "" {
		return nil, parseErr(ReasonMissingInvoker, fmt.Errorf("event: missing iss claim"))
	}
	if len(claims.Attenuation) != 1 {
		return nil, parseErr(ReasonInvalidFields, fmt.Errorf("event: invocation must name exactly one capability, got %d", len(claims.Attenuation)))
	}
	grants, err := fromWireGrants(claims.Attenuation)
	if err != nil {
		return nil, err
	}
	parents, err := parseHashList(claims.Proof)
	if err != nil {
		return nil, err
	}
	notBefore := claimsTimeToPtr(claims.NotBefore)
	expiry := claimsTimeToPtr(claims.ExpiresAt)
	if err := checkTemporal(now, notBefore, expiry); err != nil {
		return nil, err
	}
	var ops []Operation
	if claims.Op != nil {
		op, err := fromWireOperation(*claims.Op)
		if err != nil {
			return nil, err
		}
		ops = []Operation{op}
	}
	issuedAt := claimsTimeToPtr(claims.IssuedAt)
	if issuedAt == nil {
		return nil, parseErr(ReasonInvalidFields, fmt.Errorf("event: missing iat claim"))
	}
	return &InvocationInfo{
		Hash:       khash.Sum([]byte(encoded)),
		Invoker:    claims.Issuer,
		Parents:    parents,
		Capability: grants[0],
		IssuedAt:   *issuedAt,
		NotBefore:  notBefore,
		Expiry:     expiry,
		Operations: ops,
		Raw:        []byte(encoded),
	}, nil
}

func parseCBORDelegation(ctx context.Context, encoded string, resolver manifest.DIDResolver, now time.Time) (*DelegationInfo, error) {
	raw, err := decodeBase64URL(encoded)
	if err != nil {
		return nil, parseErr(ReasonUnrecognizedFormat, err)
	}
	var env cborDelegationEnvelope
	if err := decodeCBOREnvelope(raw, &env); err != nil {
		return nil, err
	}
	p := env.Payload
	if p.Issuer == "" {
		return nil, parseErr(ReasonMissingDelegator, fmt.Errorf("event: missing issuer"))
	}
	if p.Audience == "" {
		return nil, parseErr(ReasonMissingDelegate, fmt.Errorf("event: missing audience"))
	}
	payloadBytes, err := encodeCBORPayload(p)
	if err != nil {
		return nil, err
	}
	vm, err := resolveSigningKey(ctx, resolver, p.Issuer, p.KeyID)
	if err != nil {
		return nil, err
	}
	if err := verifyRawSignature(vm, payloadBytes, env.Signature); err != nil {
		return nil, err
	}
	grants, err := fromWireGrants(p.Capabilities)
	if err != nil {
		return nil, err
	}
	parents, err := parseHashList(p.Parents)
	if err != nil {
		return nil, err
	}
	notBefore, expiry := unixToTime(p.NotBefore), unixToTime(p.Expiry)
	if err := checkTemporal(now, notBefore, expiry); err != nil {
		return nil, err
	}
	return &DelegationInfo{
		Hash:         khash.Sum(raw),
		Delegator:    p.Issuer,
		Delegate:     p.Audience,
		Parents:      parents,
		Capabilities: grants,
		NotBefore:    notBefore,
		Expiry:       expiry,
		IssuedAt:     unixToTime(p.IssuedAt),
		Raw:          raw,
	}, nil
}

func parseCBORRevocation(ctx context.Context, encoded string, resolver manifest.DIDResolver, now time.Time) (*RevocationInfo, error) {
	raw, err := decodeBase64URL(encoded)
	if err != nil {
		return nil, parseErr(ReasonUnrecognizedFormat, err)
	}
	var env cborRevocationEnvelope
	if err := decodeCBOREnvelope(raw, &env); err != nil {
		return nil, err
	}
	p := env.Payload
	if p.Issuer == "" {
		return nil, parseErr(ReasonMissingDelegator, fmt.Errorf("event: missing issuer"))
	}
	target, err := khash.FromHex(p.Audience)
	if err != nil {
		return nil, parseErr(ReasonInvalidFields, err)
	}
	payloadBytes, err := encodeCBORPayload(p)
	if err != nil {
		return nil, err
	}
	vm, err := resolveSigningKey(ctx, resolver, p.Issuer, p.KeyID)
	if err != nil {
		return nil, err
	}
	if err := verifyRawSignature(vm, payloadBytes, env.Signature); err != nil {
		return nil, err
	}
	_ = now // revocations carry no expiry of their own; temporal gating happens at commit time against the target's validity window
	return &RevocationInfo{
		Hash:    khash.Sum(raw),
		Revoker: p.Issuer,
		Target:  target,
		Raw:     raw,
	}, nil
}
