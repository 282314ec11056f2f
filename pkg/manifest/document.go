// Copyright 2025 Certen Protocol

package manifest

import (
	"encoding/json"
	"errors"
	"fmt"

	josejwk "github.com/go-jose/go-jose/v4"
)

// ErrMissingDocumentID is returned by ParseDocument for a document with no id.
var ErrMissingDocumentID = errors.New("manifest: did document has no id")

// docJSON is the wire shape of a W3C DID document as an external resolver
// returns it, before adaptation into Document.
type docJSON struct {
	ID                   string        `json:"id"`
	VerificationMethod   []vmJSON      `json:"verificationMethod"`
	CapabilityDelegation refList       `json:"capabilityDelegation"`
	CapabilityInvocation refList       `json:"capabilityInvocation"`
	Service              []serviceJSON `json:"service"`
	Deactivated          bool          `json:"deactivated"`
}

type vmJSON struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	PublicKeyJwk json.RawMessage `json:"publicKeyJwk"`
}

type serviceJSON struct {
	ID              string     `json:"id"`
	Type            stringList `json:"type"`
	ServiceEndpoint stringList `json:"serviceEndpoint"`
}

// stringList accepts either a single JSON string or an array of strings,
// both of which DID documents use for service type and endpoint fields.
type stringList []string

func (s *stringList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*s = []string{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// refList accepts the verification-relationship shape: entries are either
// verification-method id strings or embedded verification-method objects,
// from which only the id is kept. A nil refList (field absent) is preserved
// so Document's fall-back-to-all-methods default still applies.
type refList []string

func (r *refList) UnmarshalJSON(b []byte) error {
	var entries []json.RawMessage
	if err := json.Unmarshal(b, &entries); err != nil {
		return err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		var id string
		if err := json.Unmarshal(e, &id); err == nil {
			out = append(out, id)
			continue
		}
		var embedded struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(e, &embedded); err != nil || embedded.ID == "" {
			continue
		}
		out = append(out, embedded.ID)
	}
	*r = out
	return nil
}

// ParseDocument decodes a raw DID document into the Document shape this
// package consumes: the adapter seam between an external resolver's native
// output and Resolve. Verification methods carrying a publicKeyJwk are
// decoded via go-jose; methods of key types this core cannot verify with are
// dropped rather than failing the whole document, matching the best-effort
// stance the bootstrap-peer parsing already takes. Relative ids ("#key1")
// are resolved against the document's own DID.
func ParseDocument(raw []byte) (*Document, error) {
	var dj docJSON
	if err := json.Unmarshal(raw, &dj); err != nil {
		return nil, fmt.Errorf("manifest: parse did document: %w", err)
	}
	if dj.ID == "" {
		return nil, ErrMissingDocumentID
	}

	doc := &Document{
		ID:          dj.ID,
		Deactivated: dj.Deactivated,
	}
	if dj.CapabilityDelegation != nil {
		doc.CapabilityDelegation = absoluteIDs(dj.ID, dj.CapabilityDelegation)
	}
	if dj.CapabilityInvocation != nil {
		doc.CapabilityInvocation = absoluteIDs(dj.ID, dj.CapabilityInvocation)
	}

	for _, vm := range dj.VerificationMethod {
		if len(vm.PublicKeyJwk) == 0 {
			continue
		}
		var key josejwk.JSONWebKey
		if err := key.UnmarshalJSON(vm.PublicKeyJwk); err != nil {
			continue
		}
		id := vm.ID
		if len(id) > 0 && id[0] == '#' {
			id = dj.ID + id
		}
		method, err := VerificationMethodFromJWK(id, key)
		if err != nil {
			continue
		}
		doc.VerificationMethod = append(doc.VerificationMethod, method)
	}

	for _, svc := range dj.Service {
		doc.Service = append(doc.Service, Service{
			ID:              svc.ID,
			Type:            svc.Type,
			ServiceEndpoint: svc.ServiceEndpoint,
		})
	}
	return doc, nil
}
