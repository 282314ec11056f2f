// Copyright 2025 Certen Protocol

package capgraph

import (
	"context"
	"database/sql"

	"github.com/kepler-network/orbit-core/pkg/event"
	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/resource"
)

// InsertRevocation writes a revocation row.
func InsertRevocation(ctx context.Context, q Querier, rec RevocationRecord) error {
	info := rec.Info
	if _, err := q.ExecContext(ctx, `
		INSERT INTO revocations (hash, orbit, revoker, target, raw, epoch_hash, epoch_seq)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		info.Hash.Bytes(), rec.Orbit.String(), info.Revoker, info.Target.Bytes(), info.Raw,
		rec.EpochHash.Bytes(), int64(rec.EpochSeq),
	); err != nil {
		return dbErr("InsertRevocation", err)
	}
	return nil
}

// GetRevocation loads a revocation by hash.
func GetRevocation(ctx context.Context, q Querier, hash khash.Hash) (*RevocationRecord, error) {
	var (
		orbitStr       string
		revoker        string
		targetBytes    []byte
		raw            []byte
		epochHashBytes []byte
		epochSeq       int64
	)
	row := q.QueryRowContext(ctx, `
		SELECT orbit, revoker, target, raw, epoch_hash, epoch_seq
		FROM revocations WHERE hash = $1`, hash.Bytes())
	if err := row.Scan(&orbitStr, &revoker, &targetBytes, &raw, &epochHashBytes, &epochSeq); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, dbErr("GetRevocation", err)
	}
	orbit, err := resource.ParseOrbitId(orbitStr)
	if err != nil {
		return nil, integrityErr("RevocationOrbit", err)
	}
	epochHash, err := khash.FromBytes(epochHashBytes)
	if err != nil {
		return nil, integrityErr("RevocationEpochHash", err)
	}
	target, err := khash.FromBytes(targetBytes)
	if err != nil {
		return nil, integrityErr("RevocationTarget", err)
	}
	return &RevocationRecord{
		Info: event.RevocationInfo{
			Hash:    hash,
			Revoker: revoker,
			Target:  target,
			Raw:     raw,
		},
		Orbit:     orbit,
		EpochHash: epochHash,
		EpochSeq:  uint64(epochSeq),
	}, nil
}

// RevocationForTarget returns the revocation naming target as its target, if
// any has been committed.
func RevocationForTarget(ctx context.Context, q Querier, target khash.Hash) (*RevocationRecord, error) {
	var hashBytes []byte
	row := q.QueryRowContext(ctx, `SELECT hash FROM revocations WHERE target = $1 LIMIT 1`, target.Bytes())
	if err := row.Scan(&hashBytes); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, dbErr("RevocationForTargetQuery", err)
	}
	h, err := khash.FromBytes(hashBytes)
	if err != nil {
		return nil, integrityErr("RevocationForTargetHashLength", err)
	}
	return GetRevocation(ctx, q, h)
}
