package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_AddChild_SingleToSingle(t *testing.T) {
	parent := NewSingleMatch(Single{Bytes: []byte("parent")})
	child := NewSingleMatch(Single{Bytes: []byte("child")})

	require.NoError(t, parent.AddChild(child))
	require.Len(t, parent.Single.Conditions, 1)
	assert.Equal(t, "child", string(parent.Single.Conditions[0].Bytes))
}

func TestMatch_AddChild_SingleToMulti(t *testing.T) {
	parent := NewMultiMatch(Multi{MinToMatch: 1})
	child := NewSingleMatch(Single{Bytes: []byte("child")})

	require.NoError(t, parent.AddChild(child))
	require.Len(t, parent.Multi.Conditions, 1)
	assert.Equal(t, "child", string(parent.Multi.Conditions[0].Bytes))
}

func TestMatch_AddChild_RejectsMultiChild(t *testing.T) {
	parent := NewSingleMatch(Single{Bytes: []byte("parent")})
	child := NewMultiMatch(Multi{MinToMatch: 1})

	err := parent.AddChild(child)
	require.Error(t, err)
}

func TestGlobType_String(t *testing.T) {
	cases := map[GlobType]string{
		GlobStartsWith: "starts_with",
		GlobEndsWith:   "ends_with",
		GlobContains:   "contains",
		GlobRegex:      "regex",
		GlobType(99):   "unknown",
	}
	for in, want := range cases {
		assert.Equal(t, want, in.String())
	}
}

func TestOffset_ZeroValue(t *testing.T) {
	var o Offset
	assert.Equal(t, uint32(0), o.From)
	assert.Equal(t, uint32(0), o.Count)
}
