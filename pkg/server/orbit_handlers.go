// Copyright 2025 Certen Protocol
//
// Orbit Lifecycle API Handlers
// Thin HTTP adaptation over pkg/orbit's create/open/read/list/heads surface.

package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/orbit"
	"github.com/kepler-network/orbit-core/pkg/resource"
)

// OrbitHandlers provides HTTP handlers for orbit lifecycle and KV read
// operations. Every request opens its own orbit.Orbit handle: the core is
// stateless across requests by design (§5), all serialization happens at
// the database.
type OrbitHandlers struct {
	opts   orbit.OpenOptions
	logger *log.Logger
}

// NewOrbitHandlers creates new orbit lifecycle handlers.
func NewOrbitHandlers(opts orbit.OpenOptions, logger *log.Logger) *OrbitHandlers {
	if logger == nil {
		logger = log.New(log.Writer(), "[OrbitAPI] ", log.LstdFlags)
	}
	return &OrbitHandlers{opts: opts, logger: logger}
}

type createOrbitRequest struct {
	OrbitID string `json:"orbit_id"`
}

// HandleCreateOrbit handles POST /api/v1/orbits.
func (h *OrbitHandlers) HandleCreateOrbit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}
	var req createOrbitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
		return
	}
	id, err := resource.ParseOrbitId(req.OrbitID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ORBIT_ID", err.Error())
		return
	}
	o, err := orbit.CreateOrbit(r.Context(), h.opts, id)
	if err != nil {
		h.writeKerr(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"orbit_id": o.ID.String()})
}

// HandleHeads handles GET /api/v1/orbits/{orbit}/heads.
func (h *OrbitHandlers) HandleHeads(w http.ResponseWriter, r *http.Request) {
	o, _, ok := h.open(w, r, "/api/v1/orbits/")
	if !ok {
		return
	}
	seq, heads, err := o.Heads(r.Context())
	if err != nil {
		h.writeKerr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"seq": seq, "heads": hashesToHex(heads)})
}

// HandleList handles GET /api/v1/orbits/{orbit}/kv.
func (h *OrbitHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	o, _, ok := h.open(w, r, "/api/v1/orbits/")
	if !ok {
		return
	}
	keys, err := o.List(r.Context())
	if err != nil {
		h.writeKerr(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

// HandleRead handles GET /api/v1/orbits/{orbit}/kv/{key}.
func (h *OrbitHandlers) HandleRead(w http.ResponseWriter, r *http.Request) {
	o, tail, ok := h.open(w, r, "/api/v1/orbits/")
	if !ok {
		return
	}
	key := strings.TrimPrefix(tail, "kv/")
	if key == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_KEY", "Key is required")
		return
	}
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}
	version, verr := parseVersionQuery(r.URL.Query())
	if verr != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_VERSION", verr.Error())
		return
	}
	entry, content, found, err := o.Read(r.Context(), key, version)
	if err != nil {
		h.writeKerr(w, err)
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "KEY_NOT_FOUND", "No live value for key "+key)
		return
	}
	defer content.Close()
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Kepler-Value-Hash", entry.ValueHash.String())
	w.Header().Set("X-Kepler-Seq", itoa64(entry.Version.Seq))
	w.Header().Set("X-Kepler-Epoch", entry.Version.Epoch.String())
	for k, v := range entry.Metadata {
		w.Header().Set("X-Kepler-Meta-"+k, v)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := copyBody(w, content); err != nil {
		h.logger.Printf("error streaming %s: %v", key, err)
	}
}

// open resolves the orbit named by the first path segment after prefix and
// returns the remaining tail path, writing an error response and returning
// ok=false on any failure.
func (h *OrbitHandlers) open(w http.ResponseWriter, r *http.Request, prefix string) (*orbit.Orbit, string, bool) {
	id, tail, err := parseOrbitSegment(r.URL.EscapedPath(), prefix)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ORBIT_ID", err.Error())
		return nil, "", false
	}
	o, err := orbit.OpenOrbit(r.Context(), h.opts, id)
	if err != nil {
		h.writeKerr(w, err)
		return nil, "", false
	}
	return o, tail, true
}

func (h *OrbitHandlers) writeJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, h.logger, status, data)
}

func (h *OrbitHandlers) writeError(w http.ResponseWriter, status int, code, message string) {
	writeError(w, h.logger, status, code, message)
}

func (h *OrbitHandlers) writeKerr(w http.ResponseWriter, err error) {
	writeKerr(w, h.logger, err)
}

func hashesToHex(hs []khash.Hash) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.String()
	}
	return out
}
