// Copyright 2025 Certen Protocol
//
// Unit tests for the HTTP adaptation layer.
// Tests request validation without requiring a database connection.

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kepler-network/orbit-core/pkg/orbit"
)

func decodeErrorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	errObj, ok := response["error"].(map[string]interface{})
	if !ok {
		t.Fatal("expected error object in response")
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestNewOrbitHandlersDefaultsLogger(t *testing.T) {
	h := NewOrbitHandlers(orbit.OpenOptions{}, nil)
	if h.logger == nil {
		t.Error("expected default logger to be initialized")
	}
}

func TestHandleCreateOrbit_MethodNotAllowed(t *testing.T) {
	h := NewOrbitHandlers(orbit.OpenOptions{}, nil)
	methods := []string{http.MethodGet, http.MethodPut, http.MethodDelete}
	for _, method := range methods {
		req := httptest.NewRequest(method, "/api/v1/orbits", nil)
		rr := httptest.NewRecorder()
		h.HandleCreateOrbit(rr, req)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected %d, got %d", method, http.StatusMethodNotAllowed, rr.Code)
		}
		if code := decodeErrorCode(t, rr); code != "METHOD_NOT_ALLOWED" {
			t.Errorf("%s: expected METHOD_NOT_ALLOWED, got %s", method, code)
		}
	}
}

func TestHandleCreateOrbit_InvalidBody(t *testing.T) {
	h := NewOrbitHandlers(orbit.OpenOptions{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orbits", strings.NewReader("not json"))
	rr := httptest.NewRecorder()
	h.HandleCreateOrbit(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if code := decodeErrorCode(t, rr); code != "INVALID_BODY" {
		t.Errorf("expected INVALID_BODY, got %s", code)
	}
}

func TestHandleCreateOrbit_InvalidOrbitID(t *testing.T) {
	h := NewOrbitHandlers(orbit.OpenOptions{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orbits", strings.NewReader(`{"orbit_id":"not-an-orbit-id"}`))
	rr := httptest.NewRecorder()
	h.HandleCreateOrbit(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if code := decodeErrorCode(t, rr); code != "INVALID_ORBIT_ID" {
		t.Errorf("expected INVALID_ORBIT_ID, got %s", code)
	}
}

func TestHandleHeads_InvalidOrbitID(t *testing.T) {
	h := NewOrbitHandlers(orbit.OpenOptions{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orbits/not-an-orbit-id/heads", nil)
	rr := httptest.NewRecorder()
	h.HandleHeads(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestHandleRead_MissingKey(t *testing.T) {
	h := NewOrbitHandlers(orbit.OpenOptions{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orbits/kepler%3Akey%3Az6MkTest%3A%2F%2Fnotes/kv/", nil)
	rr := httptest.NewRecorder()
	h.HandleRead(rr, req)
	if rr.Code != http.StatusBadRequest && rr.Code != http.StatusNotFound {
		t.Errorf("expected a client error opening the orbit or missing key, got %d", rr.Code)
	}
}

func TestEventHandlers_MethodNotAllowed(t *testing.T) {
	eh := NewEventHandlers(orbit.OpenOptions{}, 0, nil, nil)
	cases := []struct {
		name string
		fn   http.HandlerFunc
		path string
	}{
		{"delegate", eh.HandleDelegate, "/api/v1/orbits/x/delegations"},
		{"invoke", eh.HandleInvoke, "/api/v1/orbits/x/invocations"},
		{"revoke", eh.HandleRevoke, "/api/v1/orbits/x/revocations"},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, c.path, nil)
		rr := httptest.NewRecorder()
		c.fn(rr, req)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected %d, got %d", c.name, http.StatusMethodNotAllowed, rr.Code)
		}
	}
}

func TestEventHandlers_InvalidBody(t *testing.T) {
	eh := NewEventHandlers(orbit.OpenOptions{}, 0, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orbits/kepler%3Akey%3Az6MkTest%3A%2F%2Fnotes/invocations", strings.NewReader("not json"))
	rr := httptest.NewRecorder()
	eh.HandleInvoke(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if code := decodeErrorCode(t, rr); code != "INVALID_BODY" {
		t.Errorf("expected INVALID_BODY, got %s", code)
	}
}

func TestParseOrbitSegment(t *testing.T) {
	id, tail, err := parseOrbitSegment("/api/v1/orbits/kepler%3Akey%3Az6MkTest%3A%2F%2Fnotes/kv/greeting", "/api/v1/orbits/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.String() == "" {
		t.Error("expected a non-empty orbit id")
	}
	if tail != "kv/greeting" {
		t.Errorf("expected tail 'kv/greeting', got %q", tail)
	}
}
