// Copyright 2025 Certen Protocol

package event

import (
	"fmt"

	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/resource"
)

// HashOperation returns the content hash of op's canonical wire encoding,
// the per-operation digest an invocation's epoch representation links to
// when it produced operations on the orbit being committed (§4.6).
func HashOperation(op Operation) (khash.Hash, error) {
	wo, err := toWireOperation(op)
	if err != nil {
		return khash.Hash{}, err
	}
	b, err := encodeCBORPayload(wo)
	if err != nil {
		return khash.Hash{}, err
	}
	return khash.Sum(b), nil
}

func toWireOperation(op Operation) (wireOperation, error) {
	switch o := op.(type) {
	case KvWrite:
		return wireOperation{
			Kind:     opKindKvWrite,
			Orbit:    o.Orbit.String(),
			Key:      o.Key,
			Value:    o.ValueHash.String(),
			Metadata: o.Metadata,
		}, nil
	case KvDelete:
		wo := wireOperation{Kind: opKindKvDelete, Orbit: o.Orbit.String(), Key: o.Key}
		if o.Version != nil {
			wo.Version = &wireKvVersion{Seq: o.Version.Seq, Epoch: o.Version.Epoch.String(), EpochSeq: o.Version.EpochSeq}
		}
		return wo, nil
	default:
		return wireOperation{}, parseErr(ReasonInvalidFields, fmt.Errorf("event: unknown operation type %T", op))
	}
}

func fromWireOperation(wo wireOperation) (Operation, error) {
	orbit, err := resource.ParseOrbitId(wo.Orbit)
	if err != nil {
		return nil, parseErr(ReasonInvalidResource, err)
	}
	switch wo.Kind {
	case opKindKvWrite:
		vh, err := khash.FromHex(wo.Value)
		if err != nil {
			return nil, parseErr(ReasonInvalidFields, err)
		}
		return KvWrite{Orbit: orbit, Key: wo.Key, ValueHash: vh, Metadata: wo.Metadata}, nil
	case opKindKvDelete:
		d := KvDelete{Orbit: orbit, Key: wo.Key}
		if wo.Version != nil {
			eh, err := khash.FromHex(wo.Version.Epoch)
			if err != nil {
				return nil, parseErr(ReasonInvalidFields, err)
			}
			d.Version = &KvVersion{Seq: wo.Version.Seq, Epoch: eh, EpochSeq: wo.Version.EpochSeq}
		}
		return d, nil
	default:
		return nil, parseErr(ReasonInvalidFields, fmt.Errorf("event: unknown operation kind %q", wo.Kind))
	}
}
