// Copyright 2025 Certen Protocol

package orbit

import "github.com/kepler-network/orbit-core/pkg/kv"

// OutcomeKind tags which branch of the InvocationOutcome tagged union (§6)
// an invoke call produced.
type OutcomeKind int

const (
	OutcomeKvRead OutcomeKind = iota
	OutcomeKvWrite
	OutcomeKvDelete
	OutcomeKvMetadata
	OutcomeKvList
	OutcomeOpenSessions
)

var outcomeKindNames = map[OutcomeKind]string{
	OutcomeKvRead:       "kv_read",
	OutcomeKvWrite:      "kv_write",
	OutcomeKvDelete:     "kv_delete",
	OutcomeKvMetadata:   "kv_metadata",
	OutcomeKvList:       "kv_list",
	OutcomeOpenSessions: "open_sessions",
}

// String renders the outcome kind as the lower_snake_case name used in the
// JSON API.
func (k OutcomeKind) String() string {
	if name, ok := outcomeKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Capability actions this package recognizes on a "kv" service resource.
// kv/put and kv/del carry a mutating operation (event.KvWrite/KvDelete); the
// rest are read-only actions whose invocation still commits to the log but
// whose outcome is resolved against the freshly-committed state.
const (
	ActionPut          = "put"
	ActionDelete       = "del"
	ActionGet          = "get"
	ActionList         = "list"
	ActionMetadata     = "metadata"
	ActionOpenSessions = "openSessions"
)

// InvocationOutcome is the result Invoke hands back alongside the Commit,
// for mutating and read-only invocations alike. Kind selects which of its
// fields are meaningful, as grouped below.
type InvocationOutcome struct {
	Kind OutcomeKind

	// KvRead, KvWrite, KvDelete, KvMetadata
	Key     string
	Version *kv.Version
	Entry   *kv.Entry

	// KvList
	Keys []string
}
