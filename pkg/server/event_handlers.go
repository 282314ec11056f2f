// Copyright 2025 Certen Protocol
//
// Capability Event API Handlers
// Implements the delegate/invoke/revoke endpoints from §6's public API
// table over pkg/orbit.

package server

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/kepler-network/orbit-core/pkg/event"
	"github.com/kepler-network/orbit-core/pkg/metrics"
	"github.com/kepler-network/orbit-core/pkg/orbit"
)

// EventHandlers provides HTTP handlers for delegation, invocation and
// revocation submission.
type EventHandlers struct {
	opts    orbit.OpenOptions
	quota   int64
	metrics *metrics.Registry
	logger  *log.Logger
}

// NewEventHandlers creates new capability-event handlers. quota bounds the
// bytes an invocation's staged payload may consume (§5); 0 means unlimited.
// reg may be nil, in which case commits go unobserved.
func NewEventHandlers(opts orbit.OpenOptions, quota int64, reg *metrics.Registry, logger *log.Logger) *EventHandlers {
	if logger == nil {
		logger = log.New(log.Writer(), "[EventAPI] ", log.LstdFlags)
	}
	return &EventHandlers{opts: opts, quota: quota, metrics: reg, logger: logger}
}

func (h *EventHandlers) observe(start time.Time, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.ObserveCommit(time.Since(start).Seconds(), err)
}

type delegateRequest struct {
	Delegation string `json:"delegation"`
}

// HandleDelegate handles POST /api/v1/orbits/{orbit}/delegations.
func (h *EventHandlers) HandleDelegate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}
	id, _, err := parseOrbitSegment(r.URL.EscapedPath(), "/api/v1/orbits/")
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_ORBIT_ID", err.Error())
		return
	}
	var req delegateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
		return
	}
	o, err := orbit.OpenOrbit(r.Context(), h.opts, id)
	if err != nil {
		writeKerr(w, h.logger, err)
		return
	}
	now := time.Now().UTC()
	info, err := event.ParseDelegation(r.Context(), req.Delegation, h.opts.Resolver, now)
	if err != nil {
		writeKerr(w, h.logger, err)
		return
	}
	start := time.Now()
	commit, err := o.Delegate(r.Context(), *info, now)
	h.observe(start, err)
	if err != nil {
		writeKerr(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, commitResponse(commit))
}

type invokeRequest struct {
	Invocation    string `json:"invocation"`
	ContentBase64 string `json:"content_base64,omitempty"`
}

// HandleInvoke handles POST /api/v1/orbits/{orbit}/invocations.
func (h *EventHandlers) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}
	id, _, err := parseOrbitSegment(r.URL.EscapedPath(), "/api/v1/orbits/")
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_ORBIT_ID", err.Error())
		return
	}
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
		return
	}
	o, err := orbit.OpenOrbit(r.Context(), h.opts, id)
	if err != nil {
		writeKerr(w, h.logger, err)
		return
	}
	now := time.Now().UTC()
	info, err := event.ParseInvocation(r.Context(), req.Invocation, h.opts.Resolver, now)
	if err != nil {
		writeKerr(w, h.logger, err)
		return
	}
	opts := orbit.InvokeOptions{Quota: h.quota}
	if req.ContentBase64 != "" {
		raw, err := base64.StdEncoding.DecodeString(req.ContentBase64)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "INVALID_CONTENT", "content_base64 is not valid base64")
			return
		}
		opts.StagedData = bytesReader(raw)
	}
	start := time.Now()
	commit, outcome, err := o.Invoke(r.Context(), *info, opts, now)
	h.observe(start, err)
	if err != nil {
		writeKerr(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, map[string]any{
		"commit":  commitResponse(commit),
		"outcome": outcomeResponse(outcome),
	})
}

type revokeRequest struct {
	Revocation string `json:"revocation"`
}

// HandleRevoke handles POST /api/v1/orbits/{orbit}/revocations.
func (h *EventHandlers) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}
	id, _, err := parseOrbitSegment(r.URL.EscapedPath(), "/api/v1/orbits/")
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_ORBIT_ID", err.Error())
		return
	}
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
		return
	}
	o, err := orbit.OpenOrbit(r.Context(), h.opts, id)
	if err != nil {
		writeKerr(w, h.logger, err)
		return
	}
	now := time.Now().UTC()
	info, err := event.ParseRevocation(r.Context(), req.Revocation, h.opts.Resolver, now)
	if err != nil {
		writeKerr(w, h.logger, err)
		return
	}
	start := time.Now()
	commit, err := o.Revoke(r.Context(), *info, now)
	h.observe(start, err)
	if err != nil {
		writeKerr(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, commitResponse(commit))
}
