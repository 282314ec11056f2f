// Copyright 2025 Certen Protocol

package capgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCaveatsRoundTrip(t *testing.T) {
	in := map[string]any{"max_size": float64(1024), "prefix": "notes/"}
	b, err := marshalCaveats(in)
	require.NoError(t, err)
	out, err := unmarshalCaveats(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMarshalCaveatsEmpty(t *testing.T) {
	b, err := marshalCaveats(nil)
	require.NoError(t, err)
	assert.Nil(t, b)
	out, err := unmarshalCaveats(b)
	require.NoError(t, err)
	assert.Nil(t, out)
}
