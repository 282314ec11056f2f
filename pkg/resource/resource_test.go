// Copyright 2025 Certen Protocol

package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResourceIdBasic(t *testing.T) {
	r, err := ParseResourceId("kepler:ens:example.eth://orbit0/kv/path/to/image.jpg")
	require.NoError(t, err)

	assert.Equal(t, "ens:example.eth", r.Orbit().Suffix())
	assert.Equal(t, "did:ens:example.eth", r.Orbit().DID())
	assert.Equal(t, "orbit0", r.Orbit().Name())

	svc, ok := r.Service()
	require.True(t, ok)
	assert.Equal(t, "kv", svc)

	path, ok := r.Path()
	require.True(t, ok)
	assert.Equal(t, "/path/to/image.jpg", path)

	_, ok = r.Fragment()
	assert.False(t, ok)
}

func TestParseResourceIdFragmentOnly(t *testing.T) {
	r, err := ParseResourceId("kepler:ens:example.eth://orbit0#peer")
	require.NoError(t, err)

	_, ok := r.Service()
	assert.False(t, ok)
	_, ok = r.Path()
	assert.False(t, ok)
	frag, ok := r.Fragment()
	require.True(t, ok)
	assert.Equal(t, "peer", frag)
}

func TestParseResourceIdServiceFragment(t *testing.T) {
	for _, s := range []string{
		"kepler:ens:example.eth://orbit0/kv#list",
		"kepler:ens:example.eth://orbit0/kv/#list",
	} {
		r, err := ParseResourceId(s)
		require.NoError(t, err)

		svc, ok := r.Service()
		require.True(t, ok)
		assert.Equal(t, "kv", svc)

		path, ok := r.Path()
		require.True(t, ok)
		assert.Equal(t, "/", path)

		frag, ok := r.Fragment()
		require.True(t, ok)
		assert.Equal(t, "list", frag)
	}
}

func TestParseResourceIdFailures(t *testing.T) {
	_, err := ParseResourceId("kepler:://orbit0/kv/path/to/image.jpg")
	assert.Error(t, err)

	_, err = ParseResourceId("kepler:ens:example.eth://or:bit0/kv/path/to/image.jpg")
	assert.Error(t, err)
}

func TestResourceIdRoundtrip(t *testing.T) {
	s := "kepler:ens:example.eth://orbit0/kv/prefix#list"
	r, err := ParseResourceId(s)
	require.NoError(t, err)
	assert.Equal(t, s, r.String())
}

func TestExtends(t *testing.T) {
	base, err := ParseResourceId("kepler:ens:example.eth://orbit0/kv/dir/")
	require.NoError(t, err)
	base = base.WithFragment("put")

	child, err := ParseResourceId("kepler:ens:example.eth://orbit0/kv/dir/file.txt")
	require.NoError(t, err)
	child = child.WithFragment("put")

	assert.NoError(t, child.Extends(base))

	other, err := ParseResourceId("kepler:ens:example.eth://orbit0/kv/other")
	require.NoError(t, err)
	other = other.WithFragment("put")
	assert.Error(t, other.Extends(base))
}

func TestWireCapabilityRoundtrip(t *testing.T) {
	r, err := ParseResourceId("kepler:ens:example.eth://orbit0/kv/dir/file.txt")
	require.NoError(t, err)
	r = r.WithFragment("put")

	wc, err := r.ToWireCapability()
	require.NoError(t, err)
	assert.Equal(t, "kepler.kv", wc.Namespace)
	assert.Equal(t, "put", wc.Action)

	back, err := ResourceFromWireCapability(wc)
	require.NoError(t, err)
	assert.Equal(t, r.String(), back.String())
}

func TestOrbitIdParseAndContentID(t *testing.T) {
	o, err := ParseOrbitId("kepler:ens:example.eth://orbit0")
	require.NoError(t, err)
	assert.Equal(t, "kepler:ens:example.eth://orbit0", o.String())

	id1, err := o.ContentID()
	require.NoError(t, err)
	id2, err := o.ContentID()
	require.NoError(t, err)
	assert.True(t, id1.Equal(id2))

	_, err = ParseOrbitId("kepler:ens:example.eth://orbit0/extra")
	assert.Error(t, err)
}
