// Copyright 2025 Certen Protocol

package kv

import "github.com/kepler-network/orbit-core/pkg/kerr"

func dbErr(reason string, cause error) *kerr.Error {
	return kerr.New(kerr.Db, reason, cause)
}

func integrityErr(reason string, cause error) *kerr.Error {
	return kerr.New(kerr.Integrity, reason, cause)
}
