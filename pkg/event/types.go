// Copyright 2025 Certen Protocol
//
// Package event parses and normalizes signed delegation, invocation and
// revocation envelopes (§4.3): verifying signatures and temporal validity,
// then extracting the normalized info records the capability graph and
// commit engine operate on. Parsing is purely functional — no I/O beyond the
// injected DID resolver used for signature-key lookup.
package event

import (
	"time"

	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/resource"
)

// Grant is a single capability grant: a resource (whose fragment names the
// ability/action) plus optional caveats.
type Grant struct {
	Resource resource.ResourceId
	Caveats  map[string]any
}

// Action returns the grant's ability action (the resource's fragment).
func (g Grant) Action() string {
	a, _ := g.Resource.Fragment()
	return a
}

// DelegationInfo is the normalized form of a parsed delegation envelope.
type DelegationInfo struct {
	Hash         khash.Hash
	Delegator    string
	Delegate     string
	Parents      []khash.Hash
	Capabilities []Grant
	NotBefore    *time.Time
	Expiry       *time.Time
	IssuedAt     *time.Time
	Raw          []byte
}

// InvocationInfo is the normalized form of a parsed invocation envelope. An
// invocation exercises exactly one concrete capability target.
type InvocationInfo struct {
	Hash       khash.Hash
	Invoker    string
	Parents    []khash.Hash
	Capability Grant
	IssuedAt   time.Time
	NotBefore  *time.Time
	Expiry     *time.Time
	Operations []Operation
	Raw        []byte
}

// RevocationInfo is the normalized form of a parsed revocation envelope.
type RevocationInfo struct {
	Hash    khash.Hash
	Revoker string
	Target  khash.Hash
	Raw     []byte
}

// KvVersion pins a KV-write to a specific (seq, epoch hash, epoch-seq)
// ordering triple (invariant 9).
type KvVersion struct {
	Seq      uint64
	Epoch    khash.Hash
	EpochSeq uint64
}

// Operation is an invocation-bound mutation to the KV map. Operations carry
// the orbit they target so foreign-orbit operations can be excluded from an
// epoch hash (§4.3 point 4).
type Operation interface {
	TargetOrbit() resource.OrbitId
	operationTag()
}

// KvWrite is a "kv/put" operation.
type KvWrite struct {
	Orbit     resource.OrbitId
	Key       string
	ValueHash khash.Hash
	Metadata  map[string]string
}

func (w KvWrite) TargetOrbit() resource.OrbitId { return w.Orbit }
func (KvWrite) operationTag()                   {}

// KvDelete is a "kv/del" operation. Version is nil when the delete should
// resolve the current live version at commit time (§4.7).
type KvDelete struct {
	Orbit   resource.OrbitId
	Key     string
	Version *KvVersion
}

func (d KvDelete) TargetOrbit() resource.OrbitId { return d.Orbit }
func (KvDelete) operationTag()                   {}
