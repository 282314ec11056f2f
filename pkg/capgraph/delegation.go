// Copyright 2025 Certen Protocol

package capgraph

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/kepler-network/orbit-core/pkg/event"
	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/resource"
)

// InsertDelegation writes a delegation, its parent proof links and its
// capability grants.
func InsertDelegation(ctx context.Context, q Querier, rec DelegationRecord) error {
	info := rec.Info
	if _, err := q.ExecContext(ctx, `
		INSERT INTO delegations (hash, orbit, delegator, delegate, not_before, expiry, issued_at, raw, epoch_hash, epoch_seq)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		info.Hash.Bytes(), rec.Orbit.String(), info.Delegator, info.Delegate,
		info.NotBefore, info.Expiry, info.IssuedAt, info.Raw,
		rec.EpochHash.Bytes(), int64(rec.EpochSeq),
	); err != nil {
		return dbErr("InsertDelegation", err)
	}
	for _, p := range info.Parents {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO delegation_parents (delegation_hash, parent_hash) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, info.Hash.Bytes(), p.Bytes()); err != nil {
			return dbErr("InsertDelegationParent", err)
		}
	}
	for i, g := range info.Capabilities {
		wc, err := g.Resource.ToWireCapability()
		if err != nil {
			return parseErrWrap(err)
		}
		caveats, err := marshalCaveats(g.Caveats)
		if err != nil {
			return dbErr("MarshalCaveats", err)
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO delegation_capabilities (delegation_hash, idx, with_resource, namespace, action, caveats)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			info.Hash.Bytes(), i, wc.With, wc.Namespace, wc.Action, caveats); err != nil {
			return dbErr("InsertDelegationCapability", err)
		}
	}
	return nil
}

func marshalCaveats(c map[string]any) ([]byte, error) {
	if len(c) == 0 {
		return nil, nil
	}
	return json.Marshal(c)
}

func unmarshalCaveats(b []byte) (map[string]any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDelegation loads a delegation by hash, including its parents and
// capability grants.
func GetDelegation(ctx context.Context, q Querier, hash khash.Hash) (*DelegationRecord, error) {
	var (
		orbitStr                    string
		notBefore, expiry, issuedAt sql.NullTime
		delegator, delegate         string
		raw                         []byte
		epochHashBytes              []byte
		epochSeq                    int64
	)
	row := q.QueryRowContext(ctx, `
		SELECT orbit, delegator, delegate, not_before, expiry, issued_at, raw, epoch_hash, epoch_seq
		FROM delegations WHERE hash = $1`, hash.Bytes())
	if err := row.Scan(&orbitStr, &delegator, &delegate, &notBefore, &expiry, &issuedAt, &raw, &epochHashBytes, &epochSeq); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, dbErr("GetDelegation", err)
	}
	orbit, err := resource.ParseOrbitId(orbitStr)
	if err != nil {
		return nil, integrityErr("DelegationOrbit", err)
	}
	epochHash, err := khash.FromBytes(epochHashBytes)
	if err != nil {
		return nil, integrityErr("DelegationEpochHash", err)
	}
	parents, err := delegationParents(ctx, q, hash)
	if err != nil {
		return nil, err
	}
	grants, err := delegationCapabilities(ctx, q, hash)
	if err != nil {
		return nil, err
	}
	return &DelegationRecord{
		Info: event.DelegationInfo{
			Hash:         hash,
			Delegator:    delegator,
			Delegate:     delegate,
			Parents:      parents,
			Capabilities: grants,
			NotBefore:    nullTimePtr(notBefore),
			Expiry:       nullTimePtr(expiry),
			IssuedAt:     nullTimePtr(issuedAt),
			Raw:          raw,
		},
		Orbit:     orbit,
		EpochHash: epochHash,
		EpochSeq:  uint64(epochSeq),
	}, nil
}

func nullTimePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time.UTC()
	return &t
}

func delegationParents(ctx context.Context, q Querier, hash khash.Hash) ([]khash.Hash, error) {
	rows, err := q.QueryContext(ctx, `SELECT parent_hash FROM delegation_parents WHERE delegation_hash = $1`, hash.Bytes())
	if err != nil {
		return nil, dbErr("DelegationParentsQuery", err)
	}
	defer rows.Close()
	var out []khash.Hash
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, dbErr("DelegationParentsScan", err)
		}
		h, err := khash.FromBytes(b)
		if err != nil {
			return nil, integrityErr("DelegationParentHashLength", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func delegationCapabilities(ctx context.Context, q Querier, hash khash.Hash) ([]event.Grant, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT with_resource, namespace, action, caveats FROM delegation_capabilities
		WHERE delegation_hash = $1 ORDER BY idx`, hash.Bytes())
	if err != nil {
		return nil, dbErr("DelegationCapabilitiesQuery", err)
	}
	defer rows.Close()
	var out []event.Grant
	for rows.Next() {
		var with, namespace, action string
		var caveatsRaw []byte
		if err := rows.Scan(&with, &namespace, &action, &caveatsRaw); err != nil {
			return nil, dbErr("DelegationCapabilitiesScan", err)
		}
		r, err := resource.ResourceFromWireCapability(resource.WireCapability{With: with, Namespace: namespace, Action: action})
		if err != nil {
			return nil, integrityErr("DelegationCapabilityResource", err)
		}
		caveats, err := unmarshalCaveats(caveatsRaw)
		if err != nil {
			return nil, integrityErr("DelegationCapabilityCaveats", err)
		}
		out = append(out, event.Grant{Resource: r, Caveats: caveats})
	}
	return out, rows.Err()
}

// IsDelegationRevoked reports whether any revocation targets hash.
func IsDelegationRevoked(ctx context.Context, q Querier, hash khash.Hash) (bool, error) {
	var exists bool
	row := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM revocations WHERE target = $1)`, hash.Bytes())
	if err := row.Scan(&exists); err != nil {
		return false, dbErr("IsDelegationRevokedQuery", err)
	}
	return exists, nil
}

// LiveDelegationsTo returns every non-revoked delegation naming delegate as
// its delegate within orbit, valid at instant at — the candidate parent set
// an invocation's proof chain is checked against (§4.5).
func LiveDelegationsTo(ctx context.Context, q Querier, orbit resource.OrbitId, delegate string, at time.Time) ([]DelegationRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT hash FROM delegations d
		WHERE d.orbit = $1 AND d.delegate = $2
		AND (d.not_before IS NULL OR d.not_before <= $3)
		AND (d.expiry IS NULL OR d.expiry > $3)
		AND NOT EXISTS (SELECT 1 FROM revocations r WHERE r.target = d.hash)`,
		orbit.String(), delegate, at)
	if err != nil {
		return nil, dbErr("LiveDelegationsToQuery", err)
	}
	defer rows.Close()
	var hashes []khash.Hash
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, dbErr("LiveDelegationsToScan", err)
		}
		h, err := khash.FromBytes(b)
		if err != nil {
			return nil, integrityErr("LiveDelegationHashLength", err)
		}
		hashes = append(hashes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("LiveDelegationsToRows", err)
	}
	out := make([]DelegationRecord, 0, len(hashes))
	for _, h := range hashes {
		rec, err := GetDelegation(ctx, q, h)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func parseErrWrap(err error) error {
	return integrityErr("DelegationCapabilityEncode", err)
}
