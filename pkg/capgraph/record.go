// Copyright 2025 Certen Protocol

package capgraph

import (
	"github.com/kepler-network/orbit-core/pkg/event"
	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/resource"
)

// DelegationRecord is a delegation as stored in the graph: the normalized
// envelope info plus its position in the epoch log. The epoch's sequence
// number is not duplicated here — it is derivable by joining EpochHash
// against the epochs table.
type DelegationRecord struct {
	Info      event.DelegationInfo
	Orbit     resource.OrbitId
	EpochHash khash.Hash
	EpochSeq  uint64
}

// InvocationRecord is an invocation as stored in the graph.
type InvocationRecord struct {
	Info      event.InvocationInfo
	Orbit     resource.OrbitId
	EpochHash khash.Hash
	EpochSeq  uint64
}

// RevocationRecord is a revocation as stored in the graph.
type RevocationRecord struct {
	Info      event.RevocationInfo
	Orbit     resource.OrbitId
	EpochHash khash.Hash
	EpochSeq  uint64
}
