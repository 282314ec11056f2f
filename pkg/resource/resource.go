// Copyright 2025 Certen Protocol
//
// Package resource implements the OrbitId/ResourceId identifier grammar and
// the prefix-relation "extends" check used throughout capability attenuation.
package resource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kepler-network/orbit-core/pkg/khash"
)

// Sentinel parse/check errors. Kept as distinct values (rather than a single
// generic error) so callers can branch on the specific grammar violation,
// matching the teacher's one-sentinel-per-condition idiom.
var (
	ErrMissingPrefix    = errors.New("resource: missing kepler: prefix")
	ErrMissingScheme    = errors.New("resource: missing :// scheme separator")
	ErrEmptySuffix      = errors.New("resource: empty suffix")
	ErrInvalidName      = errors.New("resource: orbit name contains reserved characters")
	ErrTrailingData     = errors.New("resource: orbit id has trailing path/fragment")
	ErrIncorrectOrbit   = errors.New("resource: base and extension orbits do not match")
	ErrIncorrectService = errors.New("resource: base and extension services do not match")
	ErrIncorrectFrag    = errors.New("resource: base and extension fragments do not match")
	ErrDoesNotExtend    = errors.New("resource: extension does not extend base path")
	ErrMissingAction    = errors.New("resource: missing fragment for ability action")
)

// OrbitId identifies a per-principal permissioned data volume by the tuple
// (suffix, name). Its canonical rendering is "kepler:<suffix>://<name>" and
// its DID form is "did:<suffix>".
type OrbitId struct {
	suffix string
	name   string
}

// NewOrbitId constructs an OrbitId from its parts without validation beyond
// rejecting characters that would make the rendering ambiguous.
func NewOrbitId(suffix, name string) (OrbitId, error) {
	if suffix == "" {
		return OrbitId{}, ErrEmptySuffix
	}
	if !validName(name) {
		return OrbitId{}, ErrInvalidName
	}
	return OrbitId{suffix: suffix, name: name}, nil
}

// Suffix returns the orbit's DID method-specific suffix.
func (o OrbitId) Suffix() string { return o.suffix }

// Name returns the orbit's local name.
func (o OrbitId) Name() string { return o.name }

// DID renders the orbit's canonical DID form, "did:<suffix>".
func (o OrbitId) DID() string { return "did:" + o.suffix }

// String renders the orbit id as "kepler:<suffix>://<name>".
func (o OrbitId) String() string {
	return "kepler:" + o.suffix + "://" + o.name
}

// ContentID returns the content-addressed id of the orbit's canonical
// rendering, per §3's "its content ID is the hash of its canonical rendering".
func (o OrbitId) ContentID() (khash.ContentID, error) {
	return khash.Raw(khash.Sum([]byte(o.String())))
}

// ToResource promotes the orbit into a ResourceId targeting it directly,
// optionally scoping to a service, path and/or ability fragment.
func (o OrbitId) ToResource(service, path, fragment *string) ResourceId {
	var p *string
	if path != nil {
		np := *path
		if !strings.HasPrefix(np, "/") {
			np = "/" + np
		}
		p = &np
	}
	return ResourceId{orbit: o, service: service, path: p, fragment: fragment}
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsAny(name, "/#?@:")
}

// ParseOrbitId parses "kepler:<suffix>://<name>"; any path, fragment, query,
// userinfo or port component is a parse error — an OrbitId names exactly an
// authority, nothing more.
func ParseOrbitId(s string) (OrbitId, error) {
	rest, ok := strings.CutPrefix(s, "kepler:")
	if !ok {
		return OrbitId{}, ErrMissingPrefix
	}
	p := strings.Index(rest, "://")
	if p <= 0 {
		return OrbitId{}, ErrMissingScheme
	}
	suffix := rest[:p]
	name := rest[p+3:]
	if name == "" {
		return OrbitId{}, ErrInvalidName
	}
	if strings.ContainsAny(name, "/#?@:") {
		return OrbitId{}, ErrTrailingData
	}
	return OrbitId{suffix: suffix, name: name}, nil
}

// ResourceId identifies the target of a capability grant: an orbit, an
// optional service, an optional path beneath that service, and an optional
// fragment naming the ability (action) the grant concerns.
type ResourceId struct {
	orbit    OrbitId
	service  *string
	path     *string
	fragment *string
}

// NewResourceId builds a ResourceId directly from its parts.
func NewResourceId(orbit OrbitId, service, path, fragment *string) ResourceId {
	return orbit.ToResource(service, path, fragment)
}

// Orbit returns the target orbit.
func (r ResourceId) Orbit() OrbitId { return r.orbit }

// Service returns the scoped service name, if any.
func (r ResourceId) Service() (string, bool) {
	if r.service == nil {
		return "", false
	}
	return *r.service, true
}

// Path returns the scoped path beneath the service, if any.
func (r ResourceId) Path() (string, bool) {
	if r.path == nil {
		return "", false
	}
	return *r.path, true
}

// Fragment returns the ability-naming fragment, if any.
func (r ResourceId) Fragment() (string, bool) {
	if r.fragment == nil {
		return "", false
	}
	return *r.fragment, true
}

// WithFragment returns a copy of r with its fragment replaced.
func (r ResourceId) WithFragment(fragment string) ResourceId {
	c := r
	c.fragment = &fragment
	return c
}

func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Extends reports whether r is a valid attenuation of base: same orbit,
// service and fragment, and r's path is a superset (prefix-extension) of
// base's path. This is the prefix relation invariant 4/5 rely on.
func (r ResourceId) Extends(base ResourceId) error {
	if r.orbit != base.orbit {
		return ErrIncorrectOrbit
	}
	if !strPtrEq(r.service, base.service) {
		return ErrIncorrectService
	}
	if !strPtrEq(r.fragment, base.fragment) {
		return ErrIncorrectFrag
	}
	if !strings.HasPrefix(strOrEmpty(r.path), strOrEmpty(base.path)) {
		return ErrDoesNotExtend
	}
	return nil
}

// String renders the ResourceId as "kepler:<suffix>://<name>[/<service><path>][#<fragment>]".
func (r ResourceId) String() string {
	var b strings.Builder
	b.WriteString(r.orbit.String())
	if r.service != nil {
		b.WriteString("/")
		b.WriteString(*r.service)
	}
	if r.path != nil {
		b.WriteString(*r.path)
	}
	if r.fragment != nil {
		b.WriteString("#")
		b.WriteString(*r.fragment)
	}
	return b.String()
}

// ContentID returns the content-addressed id of the resource's canonical
// rendering.
func (r ResourceId) ContentID() (khash.ContentID, error) {
	return khash.Raw(khash.Sum([]byte(r.String())))
}

// ParseResourceId parses the full ResourceId grammar, including the
// service/path-splitting rule: the first path segment after the orbit name
// is the service; anything further is the path, always re-prefixed with "/".
func ParseResourceId(s string) (ResourceId, error) {
	rest, ok := strings.CutPrefix(s, "kepler:")
	if !ok {
		return ResourceId{}, ErrMissingPrefix
	}
	p := strings.Index(rest, "://")
	if p <= 0 {
		return ResourceId{}, ErrMissingScheme
	}
	suffix := rest[:p]
	afterScheme := rest[p+3:]

	hostEnd := strings.IndexAny(afterScheme, "/#?")
	var host, afterHost string
	if hostEnd < 0 {
		host, afterHost = afterScheme, ""
	} else {
		host, afterHost = afterScheme[:hostEnd], afterScheme[hostEnd:]
	}
	if host == "" || strings.ContainsAny(host, "@:") {
		return ResourceId{}, ErrInvalidName
	}

	pathStr := afterHost
	var fragment *string
	if hIdx := strings.IndexByte(afterHost, '#'); hIdx >= 0 {
		pathStr = afterHost[:hIdx]
		f := afterHost[hIdx+1:]
		fragment = &f
	}
	if qIdx := strings.IndexByte(pathStr, '?'); qIdx >= 0 {
		pathStr = pathStr[:qIdx]
	}

	var service, path *string
	if pathStr != "" {
		rest2 := strings.TrimPrefix(pathStr, "/")
		var svc, remainder string
		if idx := strings.IndexByte(rest2, '/'); idx >= 0 {
			svc, remainder = rest2[:idx], rest2[idx+1:]
		} else {
			svc, remainder = rest2, ""
		}
		p := "/" + remainder
		service, path = &svc, &p
	}

	return ResourceId{
		orbit:    OrbitId{suffix: suffix, name: host},
		service:  service,
		path:     path,
		fragment: fragment,
	}, nil
}

// Ability is a free-form (namespace, action) pair naming a kind of operation,
// e.g. ("kv", "put").
type Ability struct {
	Namespace string
	Action    string
}

// WireCapability is the rendering of a ResourceId+action used inside
// delegation/invocation envelopes, following the original implementation's
// ResourceId<->Capability conversion: the namespace is "kepler" or
// "kepler.<service>", and "with" is the orbit/service/path without fragment.
type WireCapability struct {
	With      string
	Namespace string
	Action    string
}

// ToWireCapability renders r (which must carry a fragment naming the action)
// as a WireCapability suitable for embedding in a signed envelope.
func (r ResourceId) ToWireCapability() (WireCapability, error) {
	fragment, ok := r.Fragment()
	if !ok {
		return WireCapability{}, ErrMissingAction
	}
	namespace := "kepler"
	if svc, ok := r.Service(); ok {
		namespace = "kepler." + svc
	}
	stripped := r
	stripped.fragment = nil
	return WireCapability{With: stripped.String(), Namespace: namespace, Action: fragment}, nil
}

// ResourceFromWireCapability reverses ToWireCapability: it parses the "with"
// field as a ResourceId and validates that namespace matches the (optional)
// service encoded there, then attaches the action as the fragment.
func ResourceFromWireCapability(c WireCapability) (ResourceId, error) {
	r, err := ParseResourceId(c.With)
	if err != nil {
		return ResourceId{}, err
	}
	svc, hasSvc := r.Service()
	switch {
	case c.Namespace == "kepler" && !hasSvc:
	case strings.HasPrefix(c.Namespace, "kepler.") && hasSvc && c.Namespace[len("kepler."):] == svc:
	default:
		return ResourceId{}, fmt.Errorf("resource: namespace %q does not match service: %w", c.Namespace, ErrIncorrectService)
	}
	return r.WithFragment(c.Action), nil
}
