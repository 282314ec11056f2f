// Copyright 2025 Certen Protocol

package kv

import (
	"github.com/kepler-network/orbit-core/pkg/khash"
)

// Version pins a write to its position in the epoch log, the ordering
// triple invariant 9 compares lexicographically.
type Version struct {
	Seq      uint64
	Epoch    khash.Hash
	EpochSeq uint64
}

// Entry is a live key's current value: the write that materialized it plus
// its version.
type Entry struct {
	Key            string
	Version        Version
	InvocationHash khash.Hash
	ValueHash      khash.Hash
	Metadata       map[string]string
}
