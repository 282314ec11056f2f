// Copyright 2025 Certen Protocol
//
// Package epoch implements the epoch log and commit engine (§4.6): atomic
// batch commits of already-parsed delegation/invocation/revocation events,
// canonical epoch hashing, and the heads/sequence DAG bookkeeping that backs
// invariants 2, 7 and 8.
package epoch

import (
	"github.com/kepler-network/orbit-core/pkg/event"
)

// Kind tags which event a CandidateEvent wraps.
type Kind int

const (
	KindDelegation Kind = iota
	KindInvocation
	KindRevocation
)

// CandidateEvent is one already-parsed, already-verified event submitted as
// part of a commit batch.
type CandidateEvent struct {
	Kind       Kind
	Delegation *event.DelegationInfo
	Invocation *event.InvocationInfo
	Revocation *event.RevocationInfo
}
