// Copyright 2025 Certen Protocol

package kv

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/resource"
)

// Put materializes a KV-write operation at the given log position.
func Put(ctx context.Context, q Querier, orbit resource.OrbitId, key string, v Version, invocationHash, valueHash khash.Hash, metadata map[string]string) error {
	meta, err := marshalMetadata(metadata)
	if err != nil {
		return integrityErr("PutMetadataEncode", err)
	}
	if _, err := q.ExecContext(ctx, `
		INSERT INTO kv_writes (orbit, key, seq, epoch_hash, epoch_seq, invocation_hash, value_hash, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING`,
		orbit.String(), key, int64(v.Seq), v.Epoch.Bytes(), int64(v.EpochSeq), invocationHash.Bytes(), valueHash.Bytes(), meta,
	); err != nil {
		return dbErr("PutWrite", err)
	}
	return nil
}

// Delete materializes a KV-delete operation at log position v. If target is
// nil, the key's current live version (if any) is resolved first and the
// tombstone is pinned to it; a delete against a key with no live value is a
// no-op. An explicit target is tombstoned as named whether or not a matching
// write exists.
func Delete(ctx context.Context, q Querier, orbit resource.OrbitId, key string, v Version, invocationHash khash.Hash, target *Version) error {
	t := target
	if t == nil {
		entry, ok, err := LiveVersion(ctx, q, orbit, key)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		t = &entry.Version
	}
	if _, err := q.ExecContext(ctx, `
		INSERT INTO kv_tombstones (orbit, invocation_hash, seq, epoch_hash, epoch_seq, key, target_seq, target_epoch_hash, target_epoch_seq)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING`,
		orbit.String(), invocationHash.Bytes(), int64(v.Seq), v.Epoch.Bytes(), int64(v.EpochSeq),
		key, int64(t.Seq), t.Epoch.Bytes(), int64(t.EpochSeq),
	); err != nil {
		return dbErr("DeleteTombstone", err)
	}
	return nil
}

// LiveVersion returns the highest-ordered, non-tombstoned write for
// (orbit, key), per invariant 9.
func LiveVersion(ctx context.Context, q Querier, orbit resource.OrbitId, key string) (*Entry, bool, error) {
	row := q.QueryRowContext(ctx, `
		SELECT w.seq, w.epoch_hash, w.epoch_seq, w.invocation_hash, w.value_hash, w.metadata
		FROM kv_writes w
		WHERE w.orbit = $1 AND w.key = $2
		AND NOT EXISTS (
			SELECT 1 FROM kv_tombstones t
			WHERE t.orbit = w.orbit AND t.key = w.key
			AND t.target_seq = w.seq AND t.target_epoch_hash = w.epoch_hash AND t.target_epoch_seq = w.epoch_seq
		)
		ORDER BY w.seq DESC, w.epoch_hash DESC, w.epoch_seq DESC
		LIMIT 1`, orbit.String(), key)

	var (
		seq, epochSeq       int64
		epochHashBytes      []byte
		invocationHashBytes []byte
		valueHashBytes      []byte
		metaRaw             []byte
	)
	if err := row.Scan(&seq, &epochHashBytes, &epochSeq, &invocationHashBytes, &valueHashBytes, &metaRaw); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, dbErr("LiveVersionQuery", err)
	}
	epochHash, err := khash.FromBytes(epochHashBytes)
	if err != nil {
		return nil, false, integrityErr("LiveVersionEpochHash", err)
	}
	invocationHash, err := khash.FromBytes(invocationHashBytes)
	if err != nil {
		return nil, false, integrityErr("LiveVersionInvocationHash", err)
	}
	valueHash, err := khash.FromBytes(valueHashBytes)
	if err != nil {
		return nil, false, integrityErr("LiveVersionValueHash", err)
	}
	meta, err := unmarshalMetadata(metaRaw)
	if err != nil {
		return nil, false, integrityErr("LiveVersionMetadata", err)
	}
	return &Entry{
		Key:            key,
		Version:        Version{Seq: uint64(seq), Epoch: epochHash, EpochSeq: uint64(epochSeq)},
		InvocationHash: invocationHash,
		ValueHash:      valueHash,
		Metadata:       meta,
	}, true, nil
}

// GetVersion returns the write for (orbit, key) pinned at exactly v, whether
// or not it is the live version, alongside whether a tombstone targets it.
func GetVersion(ctx context.Context, q Querier, orbit resource.OrbitId, key string, v Version) (*Entry, bool, error) {
	row := q.QueryRowContext(ctx, `
		SELECT w.invocation_hash, w.value_hash, w.metadata
		FROM kv_writes w
		WHERE w.orbit = $1 AND w.key = $2
		AND w.seq = $3 AND w.epoch_hash = $4 AND w.epoch_seq = $5`,
		orbit.String(), key, int64(v.Seq), v.Epoch.Bytes(), int64(v.EpochSeq))

	var invocationHashBytes, valueHashBytes, metaRaw []byte
	if err := row.Scan(&invocationHashBytes, &valueHashBytes, &metaRaw); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, dbErr("GetVersionQuery", err)
	}
	invocationHash, err := khash.FromBytes(invocationHashBytes)
	if err != nil {
		return nil, false, integrityErr("GetVersionInvocationHash", err)
	}
	valueHash, err := khash.FromBytes(valueHashBytes)
	if err != nil {
		return nil, false, integrityErr("GetVersionValueHash", err)
	}
	meta, err := unmarshalMetadata(metaRaw)
	if err != nil {
		return nil, false, integrityErr("GetVersionMetadata", err)
	}
	return &Entry{
		Key:            key,
		Version:        v,
		InvocationHash: invocationHash,
		ValueHash:      valueHash,
		Metadata:       meta,
	}, true, nil
}

// ListKeys returns every key in orbit with a live value, deduplicated,
// per §4.7's listing rule.
func ListKeys(ctx context.Context, q Querier, orbit resource.OrbitId) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT DISTINCT key FROM kv_writes WHERE orbit = $1`, orbit.String())
	if err != nil {
		return nil, dbErr("ListKeysQuery", err)
	}
	var candidates []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			rows.Close()
			return nil, dbErr("ListKeysScan", err)
		}
		candidates = append(candidates, k)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, dbErr("ListKeysRows", err)
	}
	rows.Close()

	var out []string
	for _, k := range candidates {
		_, ok, err := LiveVersion(ctx, q, orbit, k)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, k)
		}
	}
	return out, nil
}

func marshalMetadata(m map[string]string) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

func unmarshalMetadata(b []byte) (map[string]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var out map[string]string
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
