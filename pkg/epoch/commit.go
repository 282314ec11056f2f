// Copyright 2025 Certen Protocol

package epoch

import (
	"context"
	"database/sql"
	"time"

	"github.com/kepler-network/orbit-core/pkg/authz"
	"github.com/kepler-network/orbit-core/pkg/capgraph"
	"github.com/kepler-network/orbit-core/pkg/event"
	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/kv"
	"github.com/kepler-network/orbit-core/pkg/manifest"
	"github.com/kepler-network/orbit-core/pkg/resource"
)

// Commit is the result of a successful batch commit (§4.6 point 6).
type Commit struct {
	Rev             khash.Hash
	Seq             uint64
	CommittedEvents int
	ConsumedEpochs  []khash.Hash
}

// CommitBatch atomically commits a batch of already-parsed, already-verified
// events to orbit: every event is checked against the graph snapshot
// (durable state plus events already applied earlier in this batch); the
// first failure aborts the whole batch. On success a new epoch is appended
// with seq = max(parent seqs) + 1, its hash computed over the canonical
// structural encoding of its parent heads and committed events, and every
// KV operation an invocation produced is materialized into pkg/kv.
//
// db must be the same *sql.DB capgraph and kv were migrated against; the
// whole batch runs inside one serializable transaction so concurrent
// commits on the same orbit serialize at the database.
func CommitBatch(ctx context.Context, db *sql.DB, orbit resource.OrbitId, m manifest.Manifest, batch []CandidateEvent, now time.Time) (*Commit, error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, dbErr("BeginCommitTx", err)
	}
	commit, err := commitBatchTx(ctx, tx, orbit, m, batch, now)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, dbErr("CommitTx", err)
	}
	return commit, nil
}

func commitBatchTx(ctx context.Context, tx *sql.Tx, orbit resource.OrbitId, m manifest.Manifest, batch []CandidateEvent, now time.Time) (*Commit, error) {
	heads, err := capgraph.Heads(ctx, tx, orbit)
	if err != nil {
		return nil, err
	}
	maxSeq, err := capgraph.MaxSeq(ctx, tx, orbit)
	if err != nil {
		return nil, err
	}
	newSeq := maxSeq + 1

	adapter := newGraphAdapter(tx)
	for _, ev := range batch {
		if err := checkCandidate(ctx, adapter, m, ev, now); err != nil {
			return nil, err
		}
		if err := recordPending(ctx, adapter, ev); err != nil {
			return nil, err
		}
	}

	epochHash, err := HashEpoch(orbit, heads, batch)
	if err != nil {
		return nil, integrityErr("HashEpoch", err)
	}

	if err := capgraph.InsertEpoch(ctx, tx, orbit, epochHash, newSeq, heads); err != nil {
		return nil, err
	}

	for j, ev := range batch {
		if err := persistCandidate(ctx, tx, orbit, epochHash, uint64(j), newSeq, ev); err != nil {
			return nil, err
		}
	}

	return &Commit{
		Rev:             epochHash,
		Seq:             newSeq,
		CommittedEvents: len(batch),
		ConsumedEpochs:  heads,
	}, nil
}

// checkCandidate runs the §4.5 authorization check appropriate to ev's kind.
func checkCandidate(ctx context.Context, adapter *graphAdapter, m manifest.Manifest, ev CandidateEvent, now time.Time) error {
	switch ev.Kind {
	case KindDelegation:
		return authz.CheckDelegation(ctx, adapter, m, *ev.Delegation)
	case KindInvocation:
		return authz.CheckInvocation(ctx, adapter, m, *ev.Invocation, now)
	case KindRevocation:
		return authz.CheckRevocation(ctx, adapter, m, *ev.Revocation)
	default:
		return integrityErr("UnknownCandidateKind", nil)
	}
}

// recordPending folds ev into the adapter's in-memory view once it has
// passed its check, so later events in the same batch see it.
func recordPending(ctx context.Context, adapter *graphAdapter, ev CandidateEvent) error {
	switch ev.Kind {
	case KindDelegation:
		d := ev.Delegation
		adapter.addPending(d.Hash, &authz.DelegationView{
			Delegator:    d.Delegator,
			Delegate:     d.Delegate,
			NotBefore:    d.NotBefore,
			Expiry:       d.Expiry,
			Capabilities: d.Capabilities,
		})
		return nil
	case KindRevocation:
		return adapter.markRevoked(ctx, ev.Revocation.Target)
	default:
		return nil
	}
}

// persistCandidate writes ev's committed row at the given epoch position and
// materializes any KV operations it produced on this orbit.
func persistCandidate(ctx context.Context, q capgraph.Querier, orbit resource.OrbitId, epochHash khash.Hash, epochSeq, seq uint64, ev CandidateEvent) error {
	switch ev.Kind {
	case KindDelegation:
		return capgraph.InsertDelegation(ctx, q, capgraph.DelegationRecord{
			Info: *ev.Delegation, Orbit: orbit, EpochHash: epochHash, EpochSeq: epochSeq,
		})
	case KindInvocation:
		if err := capgraph.InsertInvocation(ctx, q, capgraph.InvocationRecord{
			Info: *ev.Invocation, Orbit: orbit, EpochHash: epochHash, EpochSeq: epochSeq,
		}); err != nil {
			return err
		}
		return materializeOperations(ctx, q, orbit, epochHash, seq, epochSeq, ev.Invocation)
	case KindRevocation:
		return capgraph.InsertRevocation(ctx, q, capgraph.RevocationRecord{
			Info: *ev.Revocation, Orbit: orbit, EpochHash: epochHash, EpochSeq: epochSeq,
		})
	default:
		return integrityErr("UnknownCandidateKind", nil)
	}
}

// materializeOperations writes an invocation's KV operations into pkg/kv,
// skipping any that target a different orbit than the one being committed
// (§4.3 point 4: such operations are excluded from this orbit's epoch hash
// and have no business materializing here either).
func materializeOperations(ctx context.Context, q capgraph.Querier, orbit resource.OrbitId, epochHash khash.Hash, seq, epochSeq uint64, inv *event.InvocationInfo) error {
	for _, op := range inv.Operations {
		if op.TargetOrbit().String() != orbit.String() {
			continue
		}
		version := kv.Version{Seq: seq, Epoch: epochHash, EpochSeq: epochSeq}
		switch o := op.(type) {
		case event.KvWrite:
			if err := kv.Put(ctx, q, orbit, o.Key, version, inv.Hash, o.ValueHash, o.Metadata); err != nil {
				return err
			}
		case event.KvDelete:
			var target *kv.Version
			if o.Version != nil {
				target = &kv.Version{Seq: o.Version.Seq, Epoch: o.Version.Epoch, EpochSeq: o.Version.EpochSeq}
			}
			if err := kv.Delete(ctx, q, orbit, o.Key, version, inv.Hash, target); err != nil {
				return err
			}
		}
	}
	return nil
}
