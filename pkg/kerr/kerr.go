// Copyright 2025 Certen Protocol
//
// Package kerr defines the error taxonomy shared by every core component:
// one Kind per family, carried through the stack so the HTTP host can map
// it to a status family without string-matching error messages.
package kerr

import "fmt"

// Kind names one of the error families a core operation can fail with.
type Kind int

const (
	// Parse: malformed envelope, missing required fields, unrecognized
	// capability grammar.
	Parse Kind = iota
	// Verification: signature invalid, resolver failure, deactivated DID.
	Verification
	// Temporal: not-yet-valid or expired event at commit time.
	Temporal
	// Authorization: MissingParents, UnauthorizedInvoker,
	// UnauthorizedCapability, revoked parent.
	Authorization
	// Integrity: epoch hash mismatch on replay, hash-length mismatch.
	Integrity
	// Storage: blob store failure, quota exceeded.
	Storage
	// Db: transaction failure, serialization conflict (retryable),
	// acquisition timeout.
	Db
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "parse"
	case Verification:
		return "verification"
	case Temporal:
		return "temporal"
	case Authorization:
		return "authorization"
	case Integrity:
		return "integrity"
	case Storage:
		return "storage"
	case Db:
		return "db"
	default:
		return "unknown"
	}
}

// Error wraps a taxonomy Kind, a short machine-readable Reason (e.g.
// "InvalidSignature", "MissingParents"), and the underlying cause.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error of the given kind and reason, wrapping cause (which
// may be nil).
func New(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: cause}
}

// Is reports whether err carries the given Kind, for callers that only need
// to branch on the family rather than the specific reason.
func Is(err error, kind Kind) bool {
	var e *Error
	if ae, ok := err.(*Error); ok {
		e = ae
	} else if ok := As(err, &e); !ok {
		return false
	}
	return e.Kind == kind
}

// As is a narrow errors.As for *Error, walking the Unwrap() chain by hand.
func As(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Retryable reports whether err represents a retryable condition — currently
// only Db-kind serialization conflicts, per §7's propagation policy.
func Retryable(err error) bool {
	var e *Error
	if !As(err, &e) {
		return false
	}
	return e.Kind == Db && e.Reason == "SerializationConflict"
}
