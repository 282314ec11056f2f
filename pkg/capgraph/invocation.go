// Copyright 2025 Certen Protocol

package capgraph

import (
	"context"
	"database/sql"

	"github.com/kepler-network/orbit-core/pkg/event"
	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/resource"
)

// InsertInvocation writes an invocation, its parent proof links and its
// single capability grant.
func InsertInvocation(ctx context.Context, q Querier, rec InvocationRecord) error {
	info := rec.Info
	wc, err := info.Capability.Resource.ToWireCapability()
	if err != nil {
		return integrityErr("InvocationCapabilityEncode", err)
	}
	caveats, err := marshalCaveats(info.Capability.Caveats)
	if err != nil {
		return dbErr("MarshalCaveats", err)
	}
	if _, err := q.ExecContext(ctx, `
		INSERT INTO invocations (hash, orbit, invoker, not_before, expiry, issued_at, with_resource, namespace, action, caveats, raw, epoch_hash, epoch_seq)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		info.Hash.Bytes(), rec.Orbit.String(), info.Invoker, info.NotBefore, info.Expiry, info.IssuedAt,
		wc.With, wc.Namespace, wc.Action, caveats, info.Raw, rec.EpochHash.Bytes(), int64(rec.EpochSeq),
	); err != nil {
		return dbErr("InsertInvocation", err)
	}
	for _, p := range info.Parents {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO invocation_parents (invocation_hash, parent_hash) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, info.Hash.Bytes(), p.Bytes()); err != nil {
			return dbErr("InsertInvocationParent", err)
		}
	}
	return nil
}

// GetInvocation loads an invocation by hash. Operations are not persisted
// here — they are materialized directly into pkg/kv at commit time and are
// not needed to re-derive authorization state.
func GetInvocation(ctx context.Context, q Querier, hash khash.Hash) (*InvocationRecord, error) {
	var (
		orbitStr                string
		invoker                 string
		notBefore, expiry       sql.NullTime
		issuedAt                sql.NullTime
		with, namespace, action string
		caveatsRaw, raw         []byte
		epochHashBytes          []byte
		epochSeq                int64
	)
	row := q.QueryRowContext(ctx, `
		SELECT orbit, invoker, not_before, expiry, issued_at, with_resource, namespace, action, caveats, raw, epoch_hash, epoch_seq
		FROM invocations WHERE hash = $1`, hash.Bytes())
	if err := row.Scan(&orbitStr, &invoker, &notBefore, &expiry, &issuedAt, &with, &namespace, &action, &caveatsRaw, &raw, &epochHashBytes, &epochSeq); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, dbErr("GetInvocation", err)
	}
	orbit, err := resource.ParseOrbitId(orbitStr)
	if err != nil {
		return nil, integrityErr("InvocationOrbit", err)
	}
	epochHash, err := khash.FromBytes(epochHashBytes)
	if err != nil {
		return nil, integrityErr("InvocationEpochHash", err)
	}
	r, err := resource.ResourceFromWireCapability(resource.WireCapability{With: with, Namespace: namespace, Action: action})
	if err != nil {
		return nil, integrityErr("InvocationCapabilityResource", err)
	}
	caveats, err := unmarshalCaveats(caveatsRaw)
	if err != nil {
		return nil, integrityErr("InvocationCapabilityCaveats", err)
	}
	parents, err := invocationParents(ctx, q, hash)
	if err != nil {
		return nil, err
	}
	issuedAtPtr := nullTimePtr(issuedAt)
	if issuedAtPtr == nil {
		return nil, integrityErr("InvocationMissingIssuedAt", nil)
	}
	return &InvocationRecord{
		Info: event.InvocationInfo{
			Hash:       hash,
			Invoker:    invoker,
			Parents:    parents,
			Capability: event.Grant{Resource: r, Caveats: caveats},
			IssuedAt:   *issuedAtPtr,
			NotBefore:  nullTimePtr(notBefore),
			Expiry:     nullTimePtr(expiry),
			Raw:        raw,
		},
		Orbit:     orbit,
		EpochHash: epochHash,
		EpochSeq:  uint64(epochSeq),
	}, nil
}

func invocationParents(ctx context.Context, q Querier, hash khash.Hash) ([]khash.Hash, error) {
	rows, err := q.QueryContext(ctx, `SELECT parent_hash FROM invocation_parents WHERE invocation_hash = $1`, hash.Bytes())
	if err != nil {
		return nil, dbErr("InvocationParentsQuery", err)
	}
	defer rows.Close()
	var out []khash.Hash
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, dbErr("InvocationParentsScan", err)
		}
		h, err := khash.FromBytes(b)
		if err != nil {
			return nil, integrityErr("InvocationParentHashLength", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
