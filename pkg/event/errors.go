// Copyright 2025 Certen Protocol

package event

import "github.com/kepler-network/orbit-core/pkg/kerr"

// Reason strings for the kerr.Parse/Verification/Temporal families this
// package produces, per §4.3/§7's taxonomy.
const (
	ReasonUnrecognizedFormat = "UnrecognizedFormat"
	ReasonInvalidFields      = "InvalidFields"
	ReasonInvalidResource    = "InvalidResource"
	ReasonMissingDelegator   = "MissingDelegator"
	ReasonMissingDelegate    = "MissingDelegate"
	ReasonMissingInvoker     = "MissingInvoker"
	ReasonInvalidSignature   = "InvalidSignature"
	ReasonResolverFailure    = "ResolverFailure"
	ReasonInvalidTime        = "InvalidTime"
)

func parseErr(reason string, cause error) *kerr.Error {
	return kerr.New(kerr.Parse, reason, cause)
}

func verificationErr(reason string, cause error) *kerr.Error {
	return kerr.New(kerr.Verification, reason, cause)
}

func temporalErr(reason string, cause error) *kerr.Error {
	return kerr.New(kerr.Temporal, reason, cause)
}
