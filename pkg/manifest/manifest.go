// Copyright 2025 Certen Protocol
//
// Package manifest resolves an orbit identifier to its root controllers by
// treating a DID document as the root of the capability-authorization graph.
// The DID resolver is an injected collaborator (pluggable strategy, per the
// teacher's attestation/strategy package) — this package holds no global
// resolver state.
package manifest

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	josejwk "github.com/go-jose/go-jose/v4"
	"github.com/kepler-network/orbit-core/pkg/resource"
)

// ErrDeactivated is returned when the orbit's DID document is marked
// deactivated; the manifest resolver treats this as distinct from not-found.
var ErrDeactivated = errors.New("manifest: did document deactivated")

// KeyType identifies the cryptographic scheme of a verification method's key
// material, used by the event package to pick a signature-verification
// strategy.
type KeyType int

const (
	KeyTypeUnknown KeyType = iota
	KeyTypeEd25519
	KeyTypeSecp256k1
)

// VerificationMethod is the subset of a DID document's verification method
// entry this package needs: an absolute id and raw key material.
type VerificationMethod struct {
	ID      string
	KeyType KeyType
	Key     []byte
}

// Service is a DID document service entry, used here only to recover
// bootstrap peer lists (§4.2's "service entries").
type Service struct {
	ID              string
	Type            []string
	ServiceEndpoint []string
}

// Document is the minimal DID document shape this package consumes. A real
// resolver's native document type is adapted into this shape at the
// DIDResolver boundary.
type Document struct {
	ID                   string
	VerificationMethod   []VerificationMethod
	CapabilityDelegation []string // absolute verification method ids; nil means "use VerificationMethod"
	CapabilityInvocation []string
	Service              []Service
	Deactivated          bool
}

// DIDResolver is the single pluggable collaborator this package depends on.
// Non-goal: the resolver implementation itself (external DID methods,
// signature-verification libraries) is a black box to this core.
type DIDResolver interface {
	Resolve(ctx context.Context, did string) (*Document, error)
}

// BootstrapPeer is a best-effort-parsed libp2p peer reference recovered from
// a manifest's "KeplerOrbitPeers" service entry.
type BootstrapPeer struct {
	ID    string
	Addrs []string
}

// BootstrapPeers is the named collection of peers discoverable from a
// manifest.
type BootstrapPeers struct {
	ID    string
	Peers []BootstrapPeer
}

// Manifest is the resolved root of an orbit's capability-authorization
// graph.
type Manifest struct {
	ID             resource.OrbitId
	Delegators     []string
	Invokers       []string
	BootstrapPeers BootstrapPeers
}

// IsRootController reports whether did names one of the manifest's root
// delegators (used by the bootstrap-delegation case). Matching is on the
// fragment boundary: the bare orbit DID matches any of its verification
// method URLs, and a full DID-URL matches itself exactly.
func (m Manifest) IsRootController(did string) bool {
	return matchesAny(m.Delegators, did)
}

// IsRootInvoker reports whether did names one of the manifest's root
// invokers, under the same fragment-boundary matching as IsRootController.
func (m Manifest) IsRootInvoker(did string) bool {
	return matchesAny(m.Invokers, did)
}

func matchesAny(controllers []string, did string) bool {
	for _, c := range controllers {
		if matchesController(c, did) {
			return true
		}
	}
	return false
}

func matchesController(controller, did string) bool {
	if controller == did {
		return true
	}
	return strings.HasPrefix(controller, did) && controller[len(did)] == '#'
}

// Resolve resolves id's manifest via resolver. A nil, nil return means the
// orbit's DID document was not found (the orbit does not yet exist).
func Resolve(ctx context.Context, id resource.OrbitId, resolver DIDResolver) (*Manifest, error) {
	if resolver == nil {
		return nil, fmt.Errorf("manifest: resolve %s: nil DID resolver", id.DID())
	}
	doc, err := resolver.Resolve(ctx, id.DID())
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", id.DID(), err)
	}
	if doc == nil {
		return nil, nil
	}
	if doc.Deactivated {
		return nil, ErrDeactivated
	}
	return fromDocument(doc, id), nil
}

func fromDocument(d *Document, id resource.OrbitId) *Manifest {
	delegatorIDs := d.CapabilityDelegation
	if delegatorIDs == nil {
		delegatorIDs = allVerificationMethodIDs(d)
	}
	invokerIDs := d.CapabilityInvocation
	if invokerIDs == nil {
		invokerIDs = allVerificationMethodIDs(d)
	}

	bp := BootstrapPeers{ID: id.Name()}
	for _, svc := range d.Service {
		if !hasType(svc.Type, "KeplerOrbitPeers") {
			continue
		}
		bp = parseBootstrapPeers(svc)
		break
	}

	return &Manifest{
		ID:             id,
		Delegators:     absoluteIDs(d.ID, delegatorIDs),
		Invokers:       absoluteIDs(d.ID, invokerIDs),
		BootstrapPeers: bp,
	}
}

func allVerificationMethodIDs(d *Document) []string {
	out := make([]string, 0, len(d.VerificationMethod))
	for _, vm := range d.VerificationMethod {
		out = append(out, vm.ID)
	}
	return out
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// absoluteIDs resolves relative verification-method-id fragments ("#key1")
// against the document's own DID, per id_from_vm's relative-URL handling.
func absoluteIDs(did string, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.HasPrefix(id, "#") {
			out = append(out, did+id)
		} else {
			out = append(out, id)
		}
	}
	return out
}

// parseBootstrapPeers recovers a BootstrapPeers from a service entry,
// dropping malformed endpoint entries rather than failing the whole manifest
// resolution — per §4.2, "malformed entries are dropped, not fatal".
func parseBootstrapPeers(svc Service) BootstrapPeers {
	id := svc.ID
	if idx := strings.LastIndexByte(id, '#'); idx >= 0 {
		id = id[idx+1:]
	}
	byID := make(map[string]*BootstrapPeer)
	order := make([]string, 0, len(svc.ServiceEndpoint))
	for _, ep := range svc.ServiceEndpoint {
		peerID, addr, ok := parseBootstrapPeerEndpoint(ep)
		if !ok {
			continue
		}
		p, exists := byID[peerID]
		if !exists {
			p = &BootstrapPeer{ID: peerID}
			byID[peerID] = p
			order = append(order, peerID)
		}
		p.Addrs = append(p.Addrs, addr)
	}
	peers := make([]BootstrapPeer, 0, len(order))
	for _, peerID := range order {
		peers = append(peers, *byID[peerID])
	}
	return BootstrapPeers{ID: id, Peers: peers}
}

// LookupVerificationMethod finds the verification method with the given
// absolute id within doc, used by the event package to resolve a signer's
// key material.
func LookupVerificationMethod(doc *Document, id string) (*VerificationMethod, bool) {
	for i := range doc.VerificationMethod {
		if doc.VerificationMethod[i].ID == id {
			return &doc.VerificationMethod[i], true
		}
	}
	return nil, false
}

// VerificationMethodFromJWK builds a VerificationMethod from a JWK, the shape
// a DID document's "publicKeyJwk" verification method entry carries.
func VerificationMethodFromJWK(id string, jwk josejwk.JSONWebKey) (VerificationMethod, error) {
	switch key := jwk.Key.(type) {
	case ed25519.PublicKey:
		return VerificationMethod{ID: id, KeyType: KeyTypeEd25519, Key: []byte(key)}, nil
	default:
		return VerificationMethod{}, fmt.Errorf("manifest: unsupported jwk key type %T for %s", key, id)
	}
}
