// Copyright 2025 Certen Protocol

package orbit

import "github.com/kepler-network/orbit-core/pkg/kerr"

// Reason strings this package raises directly (as opposed to ones it simply
// propagates from authz/epoch/kv/blob).
const (
	ReasonManifestMissing   = "ManifestMissing"
	ReasonForeignOrbit      = "ForeignOrbitOperation"
	ReasonQuotaExceeded     = "QuotaExceeded"
	ReasonUnknownAction     = "UnknownCapabilityAction"
	ReasonMissingStagedData = "MissingStagedData"
	ReasonHashMismatch      = "StagedHashMismatch"
)

func manifestErr(cause error) *kerr.Error {
	return kerr.New(kerr.Verification, ReasonManifestMissing, cause)
}

func storageErr(reason string, cause error) *kerr.Error {
	return kerr.New(kerr.Storage, reason, cause)
}

func parseErr(reason string, cause error) *kerr.Error {
	return kerr.New(kerr.Parse, reason, cause)
}
