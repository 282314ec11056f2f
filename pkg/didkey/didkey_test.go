// Copyright 2025 Certen Protocol

package didkey

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	josejwk "github.com/go-jose/go-jose/v4"
	"github.com/kepler-network/orbit-core/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEd25519RoundTrip(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	did, err := EncodeEd25519(pub)
	require.NoError(t, err)
	assert.Contains(t, did, "did:key:z")

	back, err := DecodeEd25519(did)
	require.NoError(t, err)
	assert.Equal(t, pub, back)
}

func TestDecodeEd25519RejectsNonDIDKey(t *testing.T) {
	_, err := DecodeEd25519("did:example:abc")
	assert.ErrorIs(t, err, ErrNotDIDKey)
}

func TestRegisterDocumentJSONResolves(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	jwkRaw, err := josejwk.JSONWebKey{Key: pub}.MarshalJSON()
	require.NoError(t, err)

	const did = "did:example.eth"
	raw, err := json.Marshal(map[string]any{
		"id": did,
		"verificationMethod": []map[string]any{
			{"id": "#key1", "type": "JsonWebKey2020", "publicKeyJwk": json.RawMessage(jwkRaw)},
		},
	})
	require.NoError(t, err)

	r := NewKeyringResolver()
	require.NoError(t, r.RegisterDocumentJSON(raw))

	doc, err := r.Resolve(context.Background(), did)
	require.NoError(t, err)
	require.NotNil(t, doc)
	vm, ok := manifest.LookupVerificationMethod(doc, did+"#key1")
	require.True(t, ok)
	assert.Equal(t, manifest.KeyTypeEd25519, vm.KeyType)
	assert.Equal(t, []byte(pub), vm.Key)
}

func TestPkhRoundTrip(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	pub := priv.PubKey()

	did := EncodePkh("eip155:1", pub)
	back, err := DecodePkhKey(did)
	require.NoError(t, err)
	assert.Equal(t, pub.SerializeCompressed(), back.SerializeCompressed())
}
