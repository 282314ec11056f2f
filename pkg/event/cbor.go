// Copyright 2025 Certen Protocol

package event

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborDelegationPayload is the signed portion of a CBOR-wrapped delegation or
// revocation statement (§4.3, §6). Timestamps are Unix seconds so the
// canonical CBOR encoding stays integer-typed.
type cborDelegationPayload struct {
	Issuer       string           `cbor:"iss"`
	Audience     string           `cbor:"aud"`
	KeyID        string           `cbor:"kid"`
	Nonce        string           `cbor:"nonce,omitempty"`
	NotBefore    *int64           `cbor:"nbf,omitempty"`
	Expiry       *int64           `cbor:"exp,omitempty"`
	IssuedAt     *int64           `cbor:"iat,omitempty"`
	Parents      []string         `cbor:"prf,omitempty"`
	Capabilities []wireCapability `cbor:"att,omitempty"`
}

type cborDelegationEnvelope struct {
	Payload   cborDelegationPayload `cbor:"payload"`
	Signature []byte                `cbor:"sig"`
}

// cborRevocationPayload is the signed portion of a revocation statement. Aud
// carries the target delegation's content hash, hex-encoded.
type cborRevocationPayload struct {
	Issuer   string `cbor:"iss"`
	Audience string `cbor:"aud"`
	KeyID    string `cbor:"kid"`
	Nonce    string `cbor:"nonce,omitempty"`
	IssuedAt *int64 `cbor:"iat,omitempty"`
}

type cborRevocationEnvelope struct {
	Payload   cborRevocationPayload `cbor:"payload"`
	Signature []byte                `cbor:"sig"`
}

// encodeCBORPayload re-encodes a payload value deterministically; used both
// to produce the bytes a signature is computed over and to reproduce those
// same bytes from a decoded envelope for verification.
func encodeCBORPayload(payload any) ([]byte, error) {
	b, err := cborEncMode.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("event: encode cbor payload: %w", err)
	}
	return b, nil
}

func decodeCBOREnvelope(raw []byte, v any) error {
	if err := cbor.Unmarshal(raw, v); err != nil {
		return parseErr(ReasonUnrecognizedFormat, err)
	}
	return nil
}
