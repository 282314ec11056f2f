// Copyright 2025 Certen Protocol

package authz

import "github.com/kepler-network/orbit-core/pkg/kerr"

// Reason strings for kerr.Authorization / kerr.Temporal errors raised by
// this package (§4.5's named failure kinds, plus the revocation-path cases
// the prose implies but doesn't name explicitly). ReasonWeakenedCaveats is
// not returned by the checks here: a child grant whose caveats loosen its
// parent's is rejected with ReasonUnauthorizedCapability.
const (
	ReasonMissingParents         = "MissingParents"
	ReasonUnauthorizedInvoker    = "UnauthorizedInvoker"
	ReasonUnauthorizedCapability = "UnauthorizedCapability"
	ReasonRevokedParent          = "RevokedParent"
	ReasonWeakenedCaveats        = "WeakenedCaveats"
	ReasonTargetNotFound         = "TargetNotFound"
	ReasonUnauthorizedRevoker    = "UnauthorizedRevoker"
	ReasonInvalidTime            = "InvalidTime"
)

func authErr(reason string) *kerr.Error {
	return kerr.New(kerr.Authorization, reason, nil)
}

func temporalErr(reason string) *kerr.Error {
	return kerr.New(kerr.Temporal, reason, nil)
}
