// Copyright 2025 Certen Protocol

package event

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Format names the two envelope encodings §4.3/§6 recognize. Detection is
// syntactic on the encoded string: the presence of "." means JWT.
type Format int

const (
	FormatJWT Format = iota
	FormatCBOR
)

// DetectFormat implements §6's detection rule.
func DetectFormat(encoded string) Format {
	if strings.Contains(encoded, ".") {
		return FormatJWT
	}
	return FormatCBOR
}

var cborEncMode = func() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// wireCan is the (namespace, capability) pair as it appears on the wire,
// mirroring resource.WireCapability.
type wireCan struct {
	Namespace  string `cbor:"namespace" json:"namespace"`
	Capability string `cbor:"capability" json:"capability"`
}

// wireCapability is a single capability grant as it appears on the wire.
type wireCapability struct {
	With    string         `cbor:"with" json:"with"`
	Can     wireCan        `cbor:"can" json:"can"`
	Caveats map[string]any `cbor:"caveats,omitempty" json:"caveats,omitempty"`
}

// wireKvVersion is the wire form of KvVersion, per §6's operation encoding.
type wireKvVersion struct {
	Seq      uint64 `cbor:"seq" json:"seq"`
	Epoch    string `cbor:"epoch" json:"epoch"`
	EpochSeq uint64 `cbor:"epoch_seq" json:"epoch_seq"`
}

// wireOperation is the tagged wire form of a KvWrite/KvDelete operation.
type wireOperation struct {
	Kind     string            `cbor:"kind" json:"kind"`
	Orbit    string            `cbor:"orbit" json:"orbit"`
	Key      string            `cbor:"key" json:"key"`
	Value    string            `cbor:"value,omitempty" json:"value,omitempty"`
	Metadata map[string]string `cbor:"metadata,omitempty" json:"metadata,omitempty"`
	Version  *wireKvVersion    `cbor:"version,omitempty" json:"version,omitempty"`
}

const (
	opKindKvWrite  = "kv/put"
	opKindKvDelete = "kv/del"
)

// decodeBase64URL decodes the base64url form used by both the CBOR envelope
// wrapper and JWT segments (no padding).
func decodeBase64URL(s string) ([]byte, error) {
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("event: base64url decode: %w", err)
	}
	return b, nil
}

func encodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
