// Copyright 2025 Certen Protocol

package authz

import (
	"context"
	"testing"
	"time"

	"github.com/kepler-network/orbit-core/pkg/event"
	"github.com/kepler-network/orbit-core/pkg/kerr"
	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/manifest"
	"github.com/kepler-network/orbit-core/pkg/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader map[khash.Hash]*DelegationView

func (f fakeReader) GetDelegation(_ context.Context, h khash.Hash) (*DelegationView, bool, error) {
	v, ok := f[h]
	return v, ok, nil
}

func testOrbitGrant(t *testing.T, action string) resource.ResourceId {
	t.Helper()
	orbit, err := resource.NewOrbitId("key:z6MkTest", "notes")
	require.NoError(t, err)
	svc := "kv"
	r := orbit.ToResource(&svc, nil, nil)
	return r.WithFragment(action)
}

func TestCheckDelegationBootstrap(t *testing.T) {
	m := manifest.Manifest{Delegators: []string{"did:key:zRoot"}}
	candidate := event.DelegationInfo{Delegator: "did:key:zRoot", Delegate: "did:key:zChild"}
	require.NoError(t, CheckDelegation(context.Background(), fakeReader{}, m, candidate))
}

func TestCheckDelegationBootstrapRejectsNonRoot(t *testing.T) {
	m := manifest.Manifest{Delegators: []string{"did:key:zRoot"}}
	candidate := event.DelegationInfo{Delegator: "did:key:zImpostor", Delegate: "did:key:zChild"}
	err := CheckDelegation(context.Background(), fakeReader{}, m, candidate)
	require.Error(t, err)
	assert.True(t, kerr.Is(err, kerr.Authorization))
}

func TestCheckDelegationParentChain(t *testing.T) {
	m := manifest.Manifest{}
	parentHash := khash.Sum([]byte("parent"))
	expiry := time.Now().Add(time.Hour)
	reader := fakeReader{
		parentHash: {
			Delegator:    "did:key:zRoot",
			Delegate:     "did:key:zMid",
			Expiry:       &expiry,
			Capabilities: []event.Grant{{Resource: testOrbitGrant(t, "put")}},
		},
	}
	childExpiry := time.Now().Add(30 * time.Minute)
	candidate := event.DelegationInfo{
		Delegator:    "did:key:zMid",
		Delegate:     "did:key:zLeaf",
		Parents:      []khash.Hash{parentHash},
		Expiry:       &childExpiry,
		Capabilities: []event.Grant{{Resource: testOrbitGrant(t, "put")}},
	}
	require.NoError(t, CheckDelegation(context.Background(), reader, m, candidate))
}

func TestCheckDelegationCoverageUnionedAcrossParents(t *testing.T) {
	m := manifest.Manifest{}
	putParent := khash.Sum([]byte("put-parent"))
	delParent := khash.Sum([]byte("del-parent"))
	expiry := time.Now().Add(time.Hour)
	reader := fakeReader{
		putParent: {
			Delegator:    "did:key:zRoot",
			Delegate:     "did:key:zMid",
			Expiry:       &expiry,
			Capabilities: []event.Grant{{Resource: testOrbitGrant(t, "put")}},
		},
		delParent: {
			Delegator:    "did:key:zRoot",
			Delegate:     "did:key:zMid",
			Expiry:       &expiry,
			Capabilities: []event.Grant{{Resource: testOrbitGrant(t, "del")}},
		},
	}
	childExpiry := time.Now().Add(30 * time.Minute)
	candidate := event.DelegationInfo{
		Delegator: "did:key:zMid",
		Delegate:  "did:key:zLeaf",
		Parents:   []khash.Hash{putParent, delParent},
		Expiry:    &childExpiry,
		Capabilities: []event.Grant{
			{Resource: testOrbitGrant(t, "put")},
			{Resource: testOrbitGrant(t, "del")},
		},
	}
	require.NoError(t, CheckDelegation(context.Background(), reader, m, candidate))
}

func TestCheckDelegationRejectsCapabilityUncoveredByAnyParent(t *testing.T) {
	m := manifest.Manifest{}
	putParent := khash.Sum([]byte("put-parent-2"))
	expiry := time.Now().Add(time.Hour)
	reader := fakeReader{
		putParent: {
			Delegator:    "did:key:zRoot",
			Delegate:     "did:key:zMid",
			Expiry:       &expiry,
			Capabilities: []event.Grant{{Resource: testOrbitGrant(t, "put")}},
		},
	}
	childExpiry := time.Now().Add(30 * time.Minute)
	candidate := event.DelegationInfo{
		Delegator: "did:key:zMid",
		Delegate:  "did:key:zLeaf",
		Parents:   []khash.Hash{putParent},
		Expiry:    &childExpiry,
		Capabilities: []event.Grant{
			{Resource: testOrbitGrant(t, "put")},
			{Resource: testOrbitGrant(t, "del")},
		},
	}
	err := CheckDelegation(context.Background(), reader, m, candidate)
	require.Error(t, err)
	assert.True(t, kerr.Is(err, kerr.Authorization))
}

func TestCheckDelegationRejectsLongerExpiry(t *testing.T) {
	m := manifest.Manifest{}
	parentHash := khash.Sum([]byte("parent"))
	parentExpiry := time.Now().Add(time.Hour)
	reader := fakeReader{
		parentHash: {
			Delegator:    "did:key:zRoot",
			Delegate:     "did:key:zMid",
			Expiry:       &parentExpiry,
			Capabilities: []event.Grant{{Resource: testOrbitGrant(t, "put")}},
		},
	}
	childExpiry := time.Now().Add(2 * time.Hour)
	candidate := event.DelegationInfo{
		Delegator:    "did:key:zMid",
		Delegate:     "did:key:zLeaf",
		Parents:      []khash.Hash{parentHash},
		Expiry:       &childExpiry,
		Capabilities: []event.Grant{{Resource: testOrbitGrant(t, "put")}},
	}
	err := CheckDelegation(context.Background(), reader, m, candidate)
	require.Error(t, err)
	assert.True(t, kerr.Is(err, kerr.Authorization))
}

func TestCheckDelegationRejectsRevokedParent(t *testing.T) {
	m := manifest.Manifest{}
	parentHash := khash.Sum([]byte("parent"))
	reader := fakeReader{
		parentHash: {
			Delegator:    "did:key:zRoot",
			Delegate:     "did:key:zMid",
			Capabilities: []event.Grant{{Resource: testOrbitGrant(t, "put")}},
			Revoked:      true,
		},
	}
	candidate := event.DelegationInfo{
		Delegator:    "did:key:zMid",
		Delegate:     "did:key:zLeaf",
		Parents:      []khash.Hash{parentHash},
		Capabilities: []event.Grant{{Resource: testOrbitGrant(t, "put")}},
	}
	err := CheckDelegation(context.Background(), reader, m, candidate)
	require.Error(t, err)
	var kErr *kerr.Error
	require.True(t, kerr.As(err, &kErr))
	assert.Equal(t, ReasonRevokedParent, kErr.Reason)
}

func TestCheckDelegationCaveatWeakeningRejected(t *testing.T) {
	m := manifest.Manifest{}
	parentHash := khash.Sum([]byte("parent"))
	reader := fakeReader{
		parentHash: {
			Delegator: "did:key:zRoot",
			Delegate:  "did:key:zMid",
			Capabilities: []event.Grant{{
				Resource: testOrbitGrant(t, "put"),
				Caveats:  map[string]any{"max_size": float64(100)},
			}},
		},
	}
	candidate := event.DelegationInfo{
		Delegator: "did:key:zMid",
		Delegate:  "did:key:zLeaf",
		Parents:   []khash.Hash{parentHash},
		Capabilities: []event.Grant{{
			Resource: testOrbitGrant(t, "put"),
			Caveats:  map[string]any{"max_size": float64(1000)},
		}},
	}
	err := CheckDelegation(context.Background(), reader, m, candidate)
	require.Error(t, err)
	assert.True(t, kerr.Is(err, kerr.Authorization))
}

func TestCheckDelegationCaveatStrengtheningAccepted(t *testing.T) {
	m := manifest.Manifest{}
	parentHash := khash.Sum([]byte("parent"))
	reader := fakeReader{
		parentHash: {
			Delegator: "did:key:zRoot",
			Delegate:  "did:key:zMid",
			Capabilities: []event.Grant{{
				Resource: testOrbitGrant(t, "put"),
				Caveats:  map[string]any{"max_size": float64(1000)},
			}},
		},
	}
	candidate := event.DelegationInfo{
		Delegator: "did:key:zMid",
		Delegate:  "did:key:zLeaf",
		Parents:   []khash.Hash{parentHash},
		Capabilities: []event.Grant{{
			Resource: testOrbitGrant(t, "put"),
			Caveats:  map[string]any{"max_size": float64(100)},
		}},
	}
	require.NoError(t, CheckDelegation(context.Background(), reader, m, candidate))
}

func TestCheckInvocationRootInvokerBootstrap(t *testing.T) {
	m := manifest.Manifest{Invokers: []string{"did:key:zRoot"}}
	candidate := event.InvocationInfo{Invoker: "did:key:zRoot"}
	require.NoError(t, CheckInvocation(context.Background(), fakeReader{}, m, candidate, time.Now()))
}

func TestCheckInvocationValidParent(t *testing.T) {
	m := manifest.Manifest{}
	parentHash := khash.Sum([]byte("parent"))
	reader := fakeReader{
		parentHash: {
			Delegate:     "did:key:zInvoker",
			Capabilities: []event.Grant{{Resource: testOrbitGrant(t, "put")}},
		},
	}
	candidate := event.InvocationInfo{
		Invoker:    "did:key:zInvoker",
		Parents:    []khash.Hash{parentHash},
		Capability: event.Grant{Resource: testOrbitGrant(t, "put")},
	}
	require.NoError(t, CheckInvocation(context.Background(), reader, m, candidate, time.Now()))
}

func TestCheckInvocationRejectsExpired(t *testing.T) {
	m := manifest.Manifest{}
	past := time.Now().Add(-time.Hour)
	candidate := event.InvocationInfo{
		Invoker: "did:key:zRoot",
		Expiry:  &past,
	}
	err := CheckInvocation(context.Background(), fakeReader{}, m, candidate, time.Now())
	require.Error(t, err)
	assert.True(t, kerr.Is(err, kerr.Temporal))
}

func TestCheckInvocationRejectsUncoveredCapability(t *testing.T) {
	m := manifest.Manifest{}
	parentHash := khash.Sum([]byte("parent"))
	reader := fakeReader{
		parentHash: {
			Delegate:     "did:key:zInvoker",
			Capabilities: []event.Grant{{Resource: testOrbitGrant(t, "get")}},
		},
	}
	candidate := event.InvocationInfo{
		Invoker:    "did:key:zInvoker",
		Parents:    []khash.Hash{parentHash},
		Capability: event.Grant{Resource: testOrbitGrant(t, "put")},
	}
	err := CheckInvocation(context.Background(), reader, m, candidate, time.Now())
	require.Error(t, err)
	var kErr *kerr.Error
	require.True(t, kerr.As(err, &kErr))
	assert.Equal(t, ReasonUnauthorizedCapability, kErr.Reason)
}

func TestCheckRevocationByDelegator(t *testing.T) {
	m := manifest.Manifest{}
	targetHash := khash.Sum([]byte("target"))
	reader := fakeReader{
		targetHash: {Delegator: "did:key:zRoot", Delegate: "did:key:zMid"},
	}
	candidate := event.RevocationInfo{Revoker: "did:key:zRoot", Target: targetHash}
	require.NoError(t, CheckRevocation(context.Background(), reader, m, candidate))
}

func TestCheckRevocationByRootController(t *testing.T) {
	m := manifest.Manifest{Delegators: []string{"did:key:zSuperRoot"}}
	targetHash := khash.Sum([]byte("target"))
	reader := fakeReader{
		targetHash: {Delegator: "did:key:zMid", Delegate: "did:key:zLeaf"},
	}
	candidate := event.RevocationInfo{Revoker: "did:key:zSuperRoot", Target: targetHash}
	require.NoError(t, CheckRevocation(context.Background(), reader, m, candidate))
}

func TestCheckRevocationRejectsWrongRevoker(t *testing.T) {
	m := manifest.Manifest{}
	targetHash := khash.Sum([]byte("target"))
	reader := fakeReader{
		targetHash: {Delegator: "did:key:zRoot", Delegate: "did:key:zMid"},
	}
	candidate := event.RevocationInfo{Revoker: "did:key:zImpostor", Target: targetHash}
	err := CheckRevocation(context.Background(), reader, m, candidate)
	require.Error(t, err)
	assert.True(t, kerr.Is(err, kerr.Authorization))
}

func TestCheckRevocationMissingTarget(t *testing.T) {
	m := manifest.Manifest{}
	candidate := event.RevocationInfo{Revoker: "did:key:zRoot", Target: khash.Sum([]byte("missing"))}
	err := CheckRevocation(context.Background(), fakeReader{}, m, candidate)
	require.Error(t, err)
	var kErr *kerr.Error
	require.True(t, kerr.As(err, &kErr))
	assert.Equal(t, ReasonTargetNotFound, kErr.Reason)
}
