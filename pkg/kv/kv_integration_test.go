// Copyright 2025 Certen Protocol
//
// Integration tests against a real Postgres instance. Skipped unless
// KEPLER_TEST_DB names a reachable database.

package kv

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"

	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/resource"
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
		panic("kv: open test database: " + err.Error())
	}
	if err := Migrate(context.Background(), testDB); err != nil {
		panic("kv: migrate test database: " + err.Error())
	}
	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func TestPutDeleteLiveVersion(t *testing.T) {
	if testDB == nil {
		t.Skip("KEPLER_TEST_DB not configured")
	}
	ctx := context.Background()
	orbit, err := resource.NewOrbitId("key:z6MkKvTest", "notes")
	require.NoError(t, err)

	epoch := khash.Sum([]byte("epoch 1"))
	invocation := khash.Sum([]byte("invocation 1"))
	value := khash.Sum([]byte("value 1"))
	v1 := Version{Seq: 1, Epoch: epoch, EpochSeq: 0}

	require.NoError(t, Put(ctx, testDB, orbit, "greeting", v1, invocation, value, map[string]string{"content-type": "text/plain"}))

	entry, ok, err := LiveVersion(ctx, testDB, orbit, "greeting")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, value, entry.ValueHash)

	keys, err := ListKeys(ctx, testDB, orbit)
	require.NoError(t, err)
	require.Contains(t, keys, "greeting")

	epoch2 := khash.Sum([]byte("epoch 2"))
	delInvocation := khash.Sum([]byte("invocation 2"))
	v2 := Version{Seq: 2, Epoch: epoch2, EpochSeq: 0}

	require.NoError(t, Delete(ctx, testDB, orbit, "greeting", v2, delInvocation, nil))
	_, ok, err = LiveVersion(ctx, testDB, orbit, "greeting")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, Delete(ctx, testDB, orbit, "never-written", v2, delInvocation, nil))
}
