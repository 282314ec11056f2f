// Copyright 2025 Certen Protocol

package manifest

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"testing"

	josejwk "github.com/go-jose/go-jose/v4"
	"github.com/kepler-network/orbit-core/pkg/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	docs map[string]*Document
	err  error
}

func (f *fakeResolver) Resolve(_ context.Context, did string) (*Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.docs[did], nil
}

func orbitID(t *testing.T) resource.OrbitId {
	t.Helper()
	id, err := resource.ParseOrbitId("kepler:example.eth://orbit0")
	require.NoError(t, err)
	return id
}

func TestResolveNotFound(t *testing.T) {
	id := orbitID(t)
	m, err := Resolve(context.Background(), id, &fakeResolver{docs: map[string]*Document{}})
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestResolveDeactivated(t *testing.T) {
	id := orbitID(t)
	r := &fakeResolver{docs: map[string]*Document{
		id.DID(): {ID: id.DID(), Deactivated: true},
	}}
	_, err := Resolve(context.Background(), id, r)
	assert.ErrorIs(t, err, ErrDeactivated)
}

func TestResolveDefaultsToVerificationMethods(t *testing.T) {
	id := orbitID(t)
	doc := &Document{
		ID: id.DID(),
		VerificationMethod: []VerificationMethod{
			{ID: "#key1", KeyType: KeyTypeEd25519, Key: []byte("k1")},
		},
	}
	r := &fakeResolver{docs: map[string]*Document{id.DID(): doc}}
	m, err := Resolve(context.Background(), id, r)
	require.NoError(t, err)
	require.NotNil(t, m)

	want := id.DID() + "#key1"
	assert.Equal(t, []string{want}, m.Delegators)
	assert.Equal(t, []string{want}, m.Invokers)
	assert.True(t, m.IsRootController(want))
	assert.True(t, m.IsRootInvoker(want))
}

func TestParseDocumentPublicKeyJwk(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	jwkRaw, err := josejwk.JSONWebKey{Key: pub}.MarshalJSON()
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]any{
		"id": "did:example.eth",
		"verificationMethod": []map[string]any{
			{"id": "#key1", "type": "JsonWebKey2020", "publicKeyJwk": json.RawMessage(jwkRaw)},
			{"id": "#no-jwk", "type": "EcdsaSecp256k1RecoveryMethod2020"},
		},
		"capabilityDelegation": []any{"#key1"},
		"capabilityInvocation": []any{map[string]any{"id": "did:example.eth#key1"}},
		"service": []map[string]any{
			{
				"id":              "did:example.eth#peers",
				"type":            "KeplerOrbitPeers",
				"serviceEndpoint": "/ip4/127.0.0.1/tcp/4001/p2p/QmeuZJbXrszW2jdT7GdduSjQskPU3S2vClkqgDtMCaRdQb",
			},
		},
	})
	require.NoError(t, err)

	doc, err := ParseDocument(raw)
	require.NoError(t, err)
	require.Len(t, doc.VerificationMethod, 1)
	vm := doc.VerificationMethod[0]
	assert.Equal(t, "did:example.eth#key1", vm.ID)
	assert.Equal(t, KeyTypeEd25519, vm.KeyType)
	assert.Equal(t, []byte(pub), vm.Key)
	assert.Equal(t, []string{"did:example.eth#key1"}, doc.CapabilityDelegation)
	assert.Equal(t, []string{"did:example.eth#key1"}, doc.CapabilityInvocation)
	require.Len(t, doc.Service, 1)
	assert.Equal(t, []string{"KeplerOrbitPeers"}, doc.Service[0].Type)
}

func TestParseDocumentRequiresID(t *testing.T) {
	_, err := ParseDocument([]byte(`{"verificationMethod": []}`))
	assert.ErrorIs(t, err, ErrMissingDocumentID)
}

func TestResolveBootstrapPeersBestEffort(t *testing.T) {
	id := orbitID(t)
	doc := &Document{
		ID: id.DID(),
		Service: []Service{
			{
				ID:   id.DID() + "#peers",
				Type: []string{"KeplerOrbitPeers"},
				ServiceEndpoint: []string{
					"not a multiaddr",
					"/ip4/127.0.0.1/tcp/4001/p2p/QmNnooDu7bfjPFoTZYxMNLWUQJyrVwtbZg5gBMjTezGAJN",
				},
			},
		},
	}
	r := &fakeResolver{docs: map[string]*Document{id.DID(): doc}}
	m, err := Resolve(context.Background(), id, r)
	require.NoError(t, err)
	require.Len(t, m.BootstrapPeers.Peers, 1)
	assert.Equal(t, "peers", m.BootstrapPeers.ID)
}
