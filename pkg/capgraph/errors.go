// Copyright 2025 Certen Protocol

package capgraph

import (
	"errors"

	"github.com/kepler-network/orbit-core/pkg/kerr"
)

// ErrNotFound is returned by single-row lookups that find nothing.
var ErrNotFound = errors.New("capgraph: not found")

func dbErr(reason string, cause error) *kerr.Error {
	return kerr.New(kerr.Db, reason, cause)
}

func integrityErr(reason string, cause error) *kerr.Error {
	return kerr.New(kerr.Integrity, reason, cause)
}
