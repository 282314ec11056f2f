// Copyright 2025 Certen Protocol
//
// Package authz implements the authorization check (§4.5): deciding whether
// a candidate delegation, invocation or revocation is authorized by the
// capability graph as it stands at commit time. It depends only on a narrow
// GraphReader view rather than the capability graph's storage package
// directly, so the decision logic is unit-testable without a database.
package authz

import (
	"context"
	"time"

	"github.com/kepler-network/orbit-core/pkg/event"
	"github.com/kepler-network/orbit-core/pkg/khash"
)

// DelegationView is the subset of a committed delegation's state the
// authorization check needs.
type DelegationView struct {
	Delegator    string
	Delegate     string
	NotBefore    *time.Time
	Expiry       *time.Time
	Capabilities []event.Grant
	Revoked      bool
}

// GraphReader is the capability graph's read surface as seen from the
// transactional snapshot a commit runs against (§4.6 point 5: "including
// events already applied earlier in this batch").
type GraphReader interface {
	GetDelegation(ctx context.Context, hash khash.Hash) (*DelegationView, bool, error)
}
