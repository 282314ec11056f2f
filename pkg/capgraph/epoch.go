// Copyright 2025 Certen Protocol

package capgraph

import (
	"context"

	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/resource"
)

// MaxSeq returns the highest epoch sequence number committed for orbit, or 0
// if none exist yet — mirroring the original implementation's max_seq query.
func MaxSeq(ctx context.Context, q Querier, orbit resource.OrbitId) (uint64, error) {
	var seq *int64
	row := q.QueryRowContext(ctx, `SELECT MAX(seq) FROM epochs WHERE orbit = $1`, orbit.String())
	if err := row.Scan(&seq); err != nil {
		return 0, dbErr("MaxSeqQuery", err)
	}
	if seq == nil {
		return 0, nil
	}
	return uint64(*seq), nil
}

// Heads returns the current DAG heads for orbit: epochs with no child link in
// epoch_parents, i.e. not referenced as a parent by any other epoch. This is
// the anti-join the original implementation expresses as find_also_linked
// filtered on a null child.
func Heads(ctx context.Context, q Querier, orbit resource.OrbitId) ([]khash.Hash, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT e.hash FROM epochs e
		WHERE e.orbit = $1
		AND NOT EXISTS (
			SELECT 1 FROM epoch_parents p WHERE p.parent_hash = e.hash
		)
		ORDER BY e.hash`, orbit.String())
	if err != nil {
		return nil, dbErr("HeadsQuery", err)
	}
	defer rows.Close()
	var out []khash.Hash
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, dbErr("HeadsScan", err)
		}
		h, err := khash.FromBytes(b)
		if err != nil {
			return nil, integrityErr("HeadsHashLength", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// InsertEpoch records a newly-committed epoch and its parent links.
func InsertEpoch(ctx context.Context, q Querier, orbit resource.OrbitId, hash khash.Hash, seq uint64, parents []khash.Hash) error {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO epochs (hash, orbit, seq) VALUES ($1, $2, $3)`,
		hash.Bytes(), orbit.String(), int64(seq)); err != nil {
		return dbErr("InsertEpoch", err)
	}
	for _, p := range parents {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO epoch_parents (epoch_hash, parent_hash) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, hash.Bytes(), p.Bytes()); err != nil {
			return dbErr("InsertEpochParent", err)
		}
	}
	return nil
}

// EpochParents returns the recorded parent hashes of an epoch, for replay
// verification against a recomputed epoch hash.
func EpochParents(ctx context.Context, q Querier, epochHash khash.Hash) ([]khash.Hash, error) {
	rows, err := q.QueryContext(ctx, `SELECT parent_hash FROM epoch_parents WHERE epoch_hash = $1`, epochHash.Bytes())
	if err != nil {
		return nil, dbErr("EpochParentsQuery", err)
	}
	defer rows.Close()
	var out []khash.Hash
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, dbErr("EpochParentsScan", err)
		}
		h, err := khash.FromBytes(b)
		if err != nil {
			return nil, integrityErr("EpochParentHashLength", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
