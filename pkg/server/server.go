// Copyright 2025 Certen Protocol
//
// Package server is the thin HTTP adaptation over pkg/orbit's public API
// (§6): one handler type per concern, plain net/http, no router framework —
// matching the teacher's pkg/server idiom of a *Handlers struct per concern
// with NewXHandlers constructors and writeJSON/writeError response helpers.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kepler-network/orbit-core/pkg/epoch"
	"github.com/kepler-network/orbit-core/pkg/kerr"
	"github.com/kepler-network/orbit-core/pkg/khash"
	"github.com/kepler-network/orbit-core/pkg/kv"
	"github.com/kepler-network/orbit-core/pkg/orbit"
	"github.com/kepler-network/orbit-core/pkg/resource"
)

func writeJSON(w http.ResponseWriter, logger *log.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Printf("error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, logger *log.Logger, status int, code, message string) {
	writeJSON(w, logger, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// writeKerr maps err to the status family §7 names (parse/verification ⇒
// 401, authorization ⇒ 403, temporal ⇒ 401, quota ⇒ 413, db transient ⇒
// 503, integrity/unknown ⇒ 500) and writes it as a JSON error body. A named
// ManifestMissing reason is reported as 404 regardless of its Kind, since
// open_orbit's failure is conceptually a not-found, not a verification
// failure.
func writeKerr(w http.ResponseWriter, logger *log.Logger, err error) {
	status, code := statusForError(err)
	writeError(w, logger, status, code, err.Error())
}

func statusForError(err error) (int, string) {
	var e *kerr.Error
	if !kerr.As(err, &e) {
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
	if e.Reason == orbit.ReasonManifestMissing {
		return http.StatusNotFound, "ORBIT_NOT_FOUND"
	}
	switch e.Kind {
	case kerr.Parse:
		return http.StatusUnauthorized, "MALFORMED_EVENT"
	case kerr.Verification:
		return http.StatusUnauthorized, "VERIFICATION_FAILED"
	case kerr.Temporal:
		return http.StatusUnauthorized, "TEMPORAL_VIOLATION"
	case kerr.Authorization:
		return http.StatusForbidden, "UNAUTHORIZED_CAPABILITY"
	case kerr.Storage:
		if e.Reason == orbit.ReasonQuotaExceeded {
			return http.StatusRequestEntityTooLarge, "QUOTA_EXCEEDED"
		}
		return http.StatusInternalServerError, "STORAGE_ERROR"
	case kerr.Db:
		if kerr.Retryable(err) {
			return http.StatusServiceUnavailable, "DB_UNAVAILABLE"
		}
		return http.StatusInternalServerError, "DB_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// parseOrbitSegment reads the first, percent-decoded path segment after
// prefix as a canonical OrbitId string, returning any remaining path as
// tail. Orbit suffixes (e.g. "key:z6Mk...") contain characters a plain
// path-split would otherwise misparse, so the full "kepler:...://..."
// rendering travels as one escaped segment.
func parseOrbitSegment(path, prefix string) (resource.OrbitId, string, error) {
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.SplitN(rest, "/", 2)
	raw, err := url.PathUnescape(parts[0])
	if err != nil {
		return resource.OrbitId{}, "", err
	}
	id, err := resource.ParseOrbitId(raw)
	if err != nil {
		return resource.OrbitId{}, "", err
	}
	tail := ""
	if len(parts) == 2 {
		tail = parts[1]
	}
	return id, tail, nil
}

func itoa64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// parseVersionQuery reads the optional seq/epoch/epoch_seq query parameters
// pinning a read to an exact version. All three must be supplied together.
func parseVersionQuery(q url.Values) (*kv.Version, error) {
	seqStr, epochStr, epochSeqStr := q.Get("seq"), q.Get("epoch"), q.Get("epoch_seq")
	if seqStr == "" && epochStr == "" && epochSeqStr == "" {
		return nil, nil
	}
	if seqStr == "" || epochStr == "" || epochSeqStr == "" {
		return nil, errors.New("server: seq, epoch and epoch_seq must be supplied together")
	}
	seq, err := strconv.ParseUint(seqStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("server: parse seq: %w", err)
	}
	epochHash, err := khash.FromHex(epochStr)
	if err != nil {
		return nil, fmt.Errorf("server: parse epoch: %w", err)
	}
	epochSeq, err := strconv.ParseUint(epochSeqStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("server: parse epoch_seq: %w", err)
	}
	return &kv.Version{Seq: seq, Epoch: epochHash, EpochSeq: epochSeq}, nil
}

func copyBody(w io.Writer, r io.Reader) (int64, error) {
	return io.Copy(w, r)
}

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

// commitResponse renders an epoch.Commit as the JSON shape the event
// submission endpoints return.
func commitResponse(c *epoch.Commit) map[string]any {
	heads := make([]string, len(c.ConsumedEpochs))
	for i, h := range c.ConsumedEpochs {
		heads[i] = h.String()
	}
	return map[string]any{
		"rev":              c.Rev.String(),
		"seq":              c.Seq,
		"committed_events": c.CommittedEvents,
		"consumed_epochs":  heads,
	}
}

// outcomeResponse renders an InvocationOutcome as JSON, omitting fields the
// outcome's kind doesn't populate.
func outcomeResponse(o *orbit.InvocationOutcome) map[string]any {
	if o == nil {
		return nil
	}
	out := map[string]any{"kind": o.Kind.String()}
	if o.Key != "" {
		out["key"] = o.Key
	}
	if o.Version != nil {
		out["version"] = map[string]any{
			"seq":       o.Version.Seq,
			"epoch":     o.Version.Epoch.String(),
			"epoch_seq": o.Version.EpochSeq,
		}
	}
	if o.Entry != nil {
		out["entry"] = map[string]any{
			"key":             o.Entry.Key,
			"value_hash":      o.Entry.ValueHash.String(),
			"invocation_hash": o.Entry.InvocationHash.String(),
			"metadata":        o.Entry.Metadata,
		}
	}
	if o.Keys != nil {
		out["keys"] = o.Keys
	}
	return out
}
