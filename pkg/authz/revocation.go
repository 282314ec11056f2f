// Copyright 2025 Certen Protocol

package authz

import (
	"context"

	"github.com/kepler-network/orbit-core/pkg/event"
	"github.com/kepler-network/orbit-core/pkg/manifest"
)

// CheckRevocation validates a candidate revocation against the graph
// snapshot reached through reader, per §4.5's candidate-revocation rule and
// invariant 6: the target delegation must exist, and the revoker must equal
// the target's delegator or be a root controller of the orbit.
func CheckRevocation(ctx context.Context, reader GraphReader, m manifest.Manifest, candidate event.RevocationInfo) error {
	target, ok, err := reader.GetDelegation(ctx, candidate.Target)
	if err != nil {
		return err
	}
	if !ok {
		return authErr(ReasonTargetNotFound)
	}
	if candidate.Revoker != target.Delegator && !m.IsRootController(candidate.Revoker) {
		return authErr(ReasonUnauthorizedRevoker)
	}
	return nil
}
