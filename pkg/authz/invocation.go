// Copyright 2025 Certen Protocol

package authz

import (
	"context"
	"time"

	"github.com/kepler-network/orbit-core/pkg/event"
	"github.com/kepler-network/orbit-core/pkg/manifest"
)

// CheckInvocation validates a candidate invocation against the graph
// snapshot reached through reader, per §4.5's candidate-invocation rule.
//
//  1. An empty parent set is only accepted when the invoker is a root
//     invoker of the orbit.
//  2. Otherwise every named parent must exist, must have delegated to this
//     invoker, must not be revoked, and must be temporally valid at now.
//  3. At least one of those parents must carry a grant that
//     extends-covers the capability the invocation exercises.
func CheckInvocation(ctx context.Context, reader GraphReader, m manifest.Manifest, candidate event.InvocationInfo, now time.Time) error {
	if err := checkTemporalWindow(now, candidate.NotBefore, candidate.Expiry); err != nil {
		return err
	}

	if len(candidate.Parents) == 0 {
		if m.IsRootInvoker(candidate.Invoker) {
			return nil
		}
		return authErr(ReasonMissingParents)
	}

	covered := false
	for _, parentHash := range candidate.Parents {
		parent, ok, err := reader.GetDelegation(ctx, parentHash)
		if err != nil {
			return err
		}
		if !ok {
			return authErr(ReasonMissingParents)
		}
		if parent.Delegate != candidate.Invoker {
			return authErr(ReasonUnauthorizedInvoker)
		}
		if parent.Revoked {
			return authErr(ReasonRevokedParent)
		}
		if err := checkTemporalWindow(now, parent.NotBefore, parent.Expiry); err != nil {
			return err
		}
		if grantCoveredBy(candidate.Capability, parent.Capabilities) {
			covered = true
		}
	}
	if !covered {
		return authErr(ReasonUnauthorizedCapability)
	}
	return nil
}

// checkTemporalWindow enforces (not_before <= now <= expiry), rejecting
// equality at expiry (the window is open on the right per §8).
func checkTemporalWindow(now time.Time, notBefore, expiry *time.Time) error {
	if notBefore != nil && now.Before(*notBefore) {
		return temporalErr(ReasonInvalidTime)
	}
	if expiry != nil && !now.Before(*expiry) {
		return temporalErr(ReasonInvalidTime)
	}
	return nil
}
