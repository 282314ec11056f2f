// Copyright 2025 Certen Protocol

package epoch

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/kepler-network/orbit-core/pkg/event"
	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/resource"
)

var cborEncMode = func() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// wireEpoch is the canonical structural encoding invariant 2 hashes:
// {parents: [CIDs], events: [per-event CIDs or CID-arrays]}.
type wireEpoch struct {
	Parents [][]byte `cbor:"parents"`
	Events  []any    `cbor:"events"`
}

// eventHash returns the content hash of a candidate event's raw signed
// envelope bytes (invariant 1).
func eventHash(ev CandidateEvent) (khash.Hash, error) {
	switch ev.Kind {
	case KindDelegation:
		return ev.Delegation.Hash, nil
	case KindInvocation:
		return ev.Invocation.Hash, nil
	case KindRevocation:
		return ev.Revocation.Hash, nil
	default:
		return khash.Hash{}, fmt.Errorf("epoch: unknown candidate event kind %d", ev.Kind)
	}
}

// eventRepr returns the epoch representation of ev: a single raw-codec CID
// for delegations, revocations and invocations with no operations scoped to
// orbit; an array of [event CID, operation CIDs...] for an invocation that
// produced operations on this orbit (§4.6 point 4). Operations targeting a
// different orbit are excluded from the representation entirely, matching
// commit.go's materializeOperations filter — they have no business in this
// orbit's epoch hash.
func eventRepr(orbit resource.OrbitId, ev CandidateEvent) (any, error) {
	h, err := eventHash(ev)
	if err != nil {
		return nil, err
	}
	eventCID, err := khash.Raw(h)
	if err != nil {
		return nil, err
	}
	if ev.Kind != KindInvocation {
		return eventCID.Bytes(), nil
	}
	ownOps := make([]event.Operation, 0, len(ev.Invocation.Operations))
	for _, op := range ev.Invocation.Operations {
		if op.TargetOrbit().String() == orbit.String() {
			ownOps = append(ownOps, op)
		}
	}
	if len(ownOps) == 0 {
		return eventCID.Bytes(), nil
	}
	repr := make([][]byte, 0, len(ownOps)+1)
	repr = append(repr, eventCID.Bytes())
	for _, op := range ownOps {
		opHash, err := event.HashOperation(op)
		if err != nil {
			return nil, err
		}
		opCID, err := khash.DagCBOR(opHash)
		if err != nil {
			return nil, err
		}
		repr = append(repr, opCID.Bytes())
	}
	return repr, nil
}

// HashEpoch computes an epoch's canonical hash from its parent set and the
// ordered batch of events it commits, scoped to orbit: operations an
// invocation produced for a different orbit are excluded from the encoding
// (§4.3 point 4, §4.6 point 4). The parent set is unordered on input and is
// canonicalized here by the Hash byte order, so the same heads always encode
// identically no matter which order the database returned them in.
func HashEpoch(orbit resource.OrbitId, parents []khash.Hash, events []CandidateEvent) (khash.Hash, error) {
	sorted := make([]khash.Hash, len(parents))
	copy(sorted, parents)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	w := wireEpoch{
		Parents: make([][]byte, 0, len(sorted)),
		Events:  make([]any, 0, len(events)),
	}
	for _, p := range sorted {
		cid, err := khash.DagCBOR(p)
		if err != nil {
			return khash.Hash{}, err
		}
		w.Parents = append(w.Parents, cid.Bytes())
	}
	for _, ev := range events {
		repr, err := eventRepr(orbit, ev)
		if err != nil {
			return khash.Hash{}, err
		}
		w.Events = append(w.Events, repr)
	}
	b, err := cborEncMode.Marshal(w)
	if err != nil {
		return khash.Hash{}, fmt.Errorf("epoch: marshal canonical encoding: %w", err)
	}
	return khash.Sum(b), nil
}
