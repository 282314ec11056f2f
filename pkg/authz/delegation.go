// Copyright 2025 Certen Protocol

package authz

import (
	"context"
	"time"

	"github.com/kepler-network/orbit-core/pkg/event"
	"github.com/kepler-network/orbit-core/pkg/manifest"
)

// CheckDelegation validates a candidate delegation against the graph
// snapshot reached through reader, per §4.5's candidate-delegation rule.
//
//  1. An empty parent set is only accepted when the delegator is a root
//     controller of the orbit (the bootstrap case).
//  2. Otherwise every parent must exist, must have delegated to this
//     delegator, must expire no sooner than the child, and must satisfy the
//     not_before ordering — those structural checks hold against every
//     named parent. Coverage is OR'd across parents: each capability the
//     child grants only needs extends-coverage by some capability of *some*
//     parent (not the same parent for every capability), with caveats on
//     the matching parent capability only ever strengthened, never
//     loosened.
//  3. Any revoked parent rejects the whole delegation.
func CheckDelegation(ctx context.Context, reader GraphReader, m manifest.Manifest, candidate event.DelegationInfo) error {
	if len(candidate.Parents) == 0 {
		if m.IsRootController(candidate.Delegator) {
			return nil
		}
		return authErr(ReasonMissingParents)
	}

	covered := make([]bool, len(candidate.Capabilities))
	for _, parentHash := range candidate.Parents {
		parent, ok, err := reader.GetDelegation(ctx, parentHash)
		if err != nil {
			return err
		}
		if !ok {
			return authErr(ReasonMissingParents)
		}
		if parent.Revoked {
			return authErr(ReasonRevokedParent)
		}
		if parent.Delegate != candidate.Delegator {
			return authErr(ReasonUnauthorizedCapability)
		}
		if !expiryWithin(candidate.Expiry, parent.Expiry) {
			return authErr(ReasonUnauthorizedCapability)
		}
		if !notBeforeOrdered(candidate.NotBefore, parent.NotBefore) {
			return authErr(ReasonUnauthorizedCapability)
		}
		for i, grant := range candidate.Capabilities {
			if grantCoveredBy(grant, parent.Capabilities) {
				covered[i] = true
			}
		}
	}
	for _, c := range covered {
		if !c {
			return authErr(ReasonUnauthorizedCapability)
		}
	}
	return nil
}

// expiryWithin reports whether child's expiry is no later than parent's.
// A nil expiry means "never expires", so a nil child expiry is only valid
// against a nil parent expiry.
func expiryWithin(child, parent *time.Time) bool {
	if parent == nil {
		return true
	}
	if child == nil {
		return false
	}
	return !child.After(*parent)
}

// notBeforeOrdered enforces invariant 4: if parent.not_before is set then
// child.not_before must be set and >= parent's.
func notBeforeOrdered(child, parent *time.Time) bool {
	if parent == nil {
		return true
	}
	if child == nil {
		return false
	}
	return !child.Before(*parent)
}

// grantCoveredBy reports whether grant is extends-covered by some capability
// in parents, with grant's caveats a valid strengthening of the covering
// parent capability's caveats.
func grantCoveredBy(grant event.Grant, parents []event.Grant) bool {
	for _, p := range parents {
		if grant.Resource.Extends(p.Resource) != nil {
			continue
		}
		if !caveatsStrengthen(p.Caveats, grant.Caveats) {
			continue
		}
		return true
	}
	return false
}
