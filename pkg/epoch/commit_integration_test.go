// Copyright 2025 Certen Protocol
//
// Integration tests against a real Postgres instance. Skipped unless
// KEPLER_TEST_DB names a reachable database.

package epoch

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/kepler-network/orbit-core/pkg/capgraph"
	"github.com/kepler-network/orbit-core/pkg/event"
	"github.com/kepler-network/orbit-core/pkg/kerr"
	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/kv"
	"github.com/kepler-network/orbit-core/pkg/manifest"
	"github.com/kepler-network/orbit-core/pkg/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("KEPLER_TEST_DB")
	if dsn == "" {
		os.Exit(m.Run())
	}
	var err error
	testDB, err = sql.Open("postgres", dsn)
	if err != nil {
		panic("epoch: open test database: " + err.Error())
	}
	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func TestCommitGenesisDelegation(t *testing.T) {
	if testDB == nil {
		t.Skip("KEPLER_TEST_DB not configured")
	}
	ctx := context.Background()
	store, err := capgraph.NewStore(os.Getenv("KEPLER_TEST_DB"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, kv.Migrate(ctx, store.DB()))

	orbit, err := resource.NewOrbitId("key:z6MkEpochCommit", "notes")
	require.NoError(t, err)
	m := manifest.Manifest{Delegators: []string{orbit.DID()}, Invokers: []string{orbit.DID()}}

	svc := "kv"
	r := orbit.ToResource(&svc, nil, nil).WithFragment("put")

	genesis := event.DelegationInfo{
		Hash:         khash.Sum([]byte("genesis delegation")),
		Delegator:    orbit.DID(),
		Delegate:     "did:key:zUser",
		Capabilities: []event.Grant{{Resource: r}},
	}
	batch := []CandidateEvent{{Kind: KindDelegation, Delegation: &genesis}}

	commit, err := CommitBatch(ctx, store.DB(), orbit, m, batch, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), commit.Seq)
	assert.Equal(t, 1, commit.CommittedEvents)

	heads, err := capgraph.Heads(ctx, store.DB(), orbit)
	require.NoError(t, err)
	assert.Contains(t, heads, commit.Rev)
}

func TestCommitRejectsUnauthorizedDelegation(t *testing.T) {
	if testDB == nil {
		t.Skip("KEPLER_TEST_DB not configured")
	}
	ctx := context.Background()
	store, err := capgraph.NewStore(os.Getenv("KEPLER_TEST_DB"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))

	orbit, err := resource.NewOrbitId("key:z6MkEpochReject", "notes")
	require.NoError(t, err)
	m := manifest.Manifest{Delegators: []string{orbit.DID()}}

	bad := event.DelegationInfo{
		Hash:      khash.Sum([]byte("impostor delegation")),
		Delegator: "did:key:zImpostor",
		Delegate:  "did:key:zUser",
	}
	batch := []CandidateEvent{{Kind: KindDelegation, Delegation: &bad}}

	_, err = CommitBatch(ctx, store.DB(), orbit, m, batch, time.Now().UTC())
	require.Error(t, err)
	assert.True(t, kerr.Is(err, kerr.Authorization))
}
