// Copyright 2025 Certen Protocol
//
// Package orbit is the per-orbit lifecycle facade (§4.9): it binds a
// resolved manifest, a migrated database connection, a blob store and a
// staging handle into one handle, and exposes the public operation surface
// (§6) the HTTP host drives — delegate/invoke/revoke/read/list/heads —
// without callers needing to know about capgraph, epoch, kv or authz
// directly.
package orbit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kepler-network/orbit-core/pkg/blob"
	"github.com/kepler-network/orbit-core/pkg/capgraph"
	"github.com/kepler-network/orbit-core/pkg/epoch"
	"github.com/kepler-network/orbit-core/pkg/event"
	"github.com/kepler-network/orbit-core/pkg/kerr"
	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/kv"
	"github.com/kepler-network/orbit-core/pkg/manifest"
	"github.com/kepler-network/orbit-core/pkg/resource"
)

// Orbit is an open handle to a single permissioned data volume: its
// resolved manifest, the shared database connection (already migrated) and
// a blob store for payload content.
type Orbit struct {
	ID       resource.OrbitId
	Manifest manifest.Manifest
	db       *sql.DB
	blobs    blob.Store
}

// OpenOptions bundles the collaborators CreateOrbit/OpenOrbit need.
type OpenOptions struct {
	DB       *sql.DB
	Resolver manifest.DIDResolver
	Blobs    blob.Store
}

// OpenOrbit resolves orbit's manifest and returns a handle bound to it.
// Opening never creates schema; call CreateOrbit first for a new database.
func OpenOrbit(ctx context.Context, opts OpenOptions, id resource.OrbitId) (*Orbit, error) {
	m, err := manifest.Resolve(ctx, id, opts.Resolver)
	if err != nil {
		return nil, manifestErr(err)
	}
	if m == nil {
		return nil, manifestErr(nil)
	}
	return &Orbit{ID: id, Manifest: *m, db: opts.DB, blobs: opts.Blobs}, nil
}

// CreateOrbit applies capgraph's and kv's migrations to opts.DB, then opens
// the orbit exactly as OpenOrbit does. It is idempotent: calling it again on
// an already-migrated database is a no-op beyond the manifest resolution.
func CreateOrbit(ctx context.Context, opts OpenOptions, id resource.OrbitId) (*Orbit, error) {
	store := capgraph.NewStoreFromDB(opts.DB)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}
	if err := kv.Migrate(ctx, opts.DB); err != nil {
		return nil, err
	}
	return OpenOrbit(ctx, opts, id)
}

// Delegate checks and commits a single delegation event (§4.5, §4.6).
func (o *Orbit) Delegate(ctx context.Context, candidate event.DelegationInfo, now time.Time) (*epoch.Commit, error) {
	batch := []epoch.CandidateEvent{{Kind: epoch.KindDelegation, Delegation: &candidate}}
	return epoch.CommitBatch(ctx, o.db, o.ID, o.Manifest, batch, now)
}

// Revoke checks and commits a single revocation event.
func (o *Orbit) Revoke(ctx context.Context, candidate event.RevocationInfo, now time.Time) (*epoch.Commit, error) {
	batch := []epoch.CandidateEvent{{Kind: epoch.KindRevocation, Revocation: &candidate}}
	return epoch.CommitBatch(ctx, o.db, o.ID, o.Manifest, batch, now)
}

// InvokeOptions carries the optional payload bytes an invocation's "put"
// operation stages into the blob store, and the per-orbit byte-size quota
// (§5's backpressure rule) bounding how much of it gets read.
type InvokeOptions struct {
	StagedData io.Reader
	Quota      int64
}

// Invoke persists any staged payload, checks and commits the invocation
// event, and derives the InvocationOutcome §6 promises. Every operation in
// candidate must target this orbit; one targeting another orbit is rejected
// outright rather than silently dropped (§4.9).
func (o *Orbit) Invoke(ctx context.Context, candidate event.InvocationInfo, opts InvokeOptions, now time.Time) (*epoch.Commit, *InvocationOutcome, error) {
	if err := o.rejectForeignOps(candidate.Operations); err != nil {
		return nil, nil, err
	}
	if err := o.stageOperationPayloads(ctx, candidate.Operations, opts); err != nil {
		return nil, nil, err
	}

	batch := []epoch.CandidateEvent{{Kind: epoch.KindInvocation, Invocation: &candidate}}
	commit, err := epoch.CommitBatch(ctx, o.db, o.ID, o.Manifest, batch, now)
	if err != nil {
		return nil, nil, err
	}

	outcome, err := o.outcomeFor(ctx, candidate, commit)
	if err != nil {
		return commit, nil, err
	}
	return commit, outcome, nil
}

func (o *Orbit) rejectForeignOps(ops []event.Operation) error {
	for _, op := range ops {
		if op.TargetOrbit().String() != o.ID.String() {
			return kerr.New(kerr.Authorization, ReasonForeignOrbit,
				fmt.Errorf("orbit: operation targets %s, not %s", op.TargetOrbit().String(), o.ID.String()))
		}
	}
	return nil
}

// stageOperationPayloads persists the blob behind every KvWrite operation in
// ops. If the content is already in the blob store (a retried invoke), the
// caller need not supply opts.StagedData again.
func (o *Orbit) stageOperationPayloads(ctx context.Context, ops []event.Operation, opts InvokeOptions) error {
	for _, op := range ops {
		w, ok := op.(event.KvWrite)
		if !ok {
			continue
		}
		exists, err := o.blobs.Contains(ctx, w.ValueHash)
		if err != nil {
			return storageErr("BlobContains", err)
		}
		if exists {
			continue
		}
		if opts.StagedData == nil {
			return storageErr(ReasonMissingStagedData, fmt.Errorf("orbit: kv/put for %q has no staged content and none is already stored", w.Key))
		}
		staging, err := o.blobs.Stage(ctx)
		if err != nil {
			return storageErr("Stage", err)
		}
		if err := copyWithQuota(staging, opts.StagedData, opts.Quota); err != nil {
			return err
		}
		if err := o.blobs.PersistKeyed(ctx, staging, w.ValueHash); err != nil {
			if errors.Is(err, blob.ErrHashMismatch) {
				return kerr.New(kerr.Integrity, ReasonHashMismatch, err)
			}
			return storageErr("PersistKeyed", err)
		}
	}
	return nil
}

// copyWithQuota streams src into dst, copying at most quota+1 bytes so an
// overrun is detected without reading the rest of src; a quota violation
// never reaches Persist/PersistKeyed — the staged buffer is simply
// discarded, per §5's "without partial persistence".
// quota <= 0 means unlimited.
func copyWithQuota(dst io.Writer, src io.Reader, quota int64) error {
	if quota <= 0 {
		if _, err := io.Copy(dst, src); err != nil {
			return storageErr("StageCopy", err)
		}
		return nil
	}
	limited := io.LimitReader(src, quota+1)
	n, err := io.Copy(dst, limited)
	if err != nil {
		return storageErr("StageCopy", err)
	}
	if n > quota {
		return kerr.New(kerr.Storage, ReasonQuotaExceeded,
			fmt.Errorf("orbit: staged data exceeds quota of %d bytes", quota))
	}
	return nil
}

// outcomeFor derives the InvocationOutcome §6 requires: mutating
// invocations (kv/put, kv/del) report the write/delete they just committed;
// read-only actions (kv/get, kv/list, kv/metadata, openSessions) are
// resolved against the now-committed state.
func (o *Orbit) outcomeFor(ctx context.Context, candidate event.InvocationInfo, commit *epoch.Commit) (*InvocationOutcome, error) {
	for _, op := range candidate.Operations {
		switch w := op.(type) {
		case event.KvWrite:
			v := kv.Version{Seq: commit.Seq, Epoch: commit.Rev, EpochSeq: 0}
			return &InvocationOutcome{Kind: OutcomeKvWrite, Key: w.Key, Version: &v}, nil
		case event.KvDelete:
			return &InvocationOutcome{Kind: OutcomeKvDelete, Key: w.Key}, nil
		}
	}

	action := candidate.Capability.Action()
	key, _ := candidate.Capability.Resource.Path()

	switch action {
	case ActionGet:
		entry, _, err := kv.LiveVersion(ctx, o.db, o.ID, key)
		if err != nil {
			return nil, err
		}
		return &InvocationOutcome{Kind: OutcomeKvRead, Key: key, Entry: entry}, nil
	case ActionMetadata:
		entry, _, err := kv.LiveVersion(ctx, o.db, o.ID, key)
		if err != nil {
			return nil, err
		}
		return &InvocationOutcome{Kind: OutcomeKvMetadata, Key: key, Entry: entry}, nil
	case ActionList:
		keys, err := kv.ListKeys(ctx, o.db, o.ID)
		if err != nil {
			return nil, err
		}
		return &InvocationOutcome{Kind: OutcomeKvList, Keys: keys}, nil
	case ActionOpenSessions:
		return &InvocationOutcome{Kind: OutcomeOpenSessions}, nil
	default:
		return nil, parseErr(ReasonUnknownAction, fmt.Errorf("orbit: unrecognized capability action %q", action))
	}
}

// Read resolves key's live version — or, when version is non-nil, the write
// pinned at exactly that version — and, if present, opens its blob content.
// A missing key or version is reported as (nil, nil, false, nil), not an
// error.
func (o *Orbit) Read(ctx context.Context, key string, version *kv.Version) (*kv.Entry, io.ReadCloser, bool, error) {
	var (
		entry *kv.Entry
		ok    bool
		err   error
	)
	if version != nil {
		entry, ok, err = kv.GetVersion(ctx, o.db, o.ID, key, *version)
	} else {
		entry, ok, err = kv.LiveVersion(ctx, o.db, o.ID, key)
	}
	if err != nil || !ok {
		return nil, nil, ok, err
	}
	r, _, ok, err := o.blobs.Read(ctx, entry.ValueHash)
	if err != nil {
		return entry, nil, false, storageErr("Read", err)
	}
	return entry, r, ok, nil
}

// List returns every key in the orbit with a live value.
func (o *Orbit) List(ctx context.Context) ([]string, error) {
	return kv.ListKeys(ctx, o.db, o.ID)
}

// Heads returns the orbit's current sequence number and epoch DAG heads.
func (o *Orbit) Heads(ctx context.Context) (uint64, []khash.Hash, error) {
	seq, err := capgraph.MaxSeq(ctx, o.db, o.ID)
	if err != nil {
		return 0, nil, err
	}
	heads, err := capgraph.Heads(ctx, o.db, o.ID)
	if err != nil {
		return 0, nil, err
	}
	return seq, heads, nil
}
