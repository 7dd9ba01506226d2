package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Validate_OK(t *testing.T) {
	r := NewRegistry()
	r.RulesByType["image/png"] = nil
	r.RulesByType["image/x-png"] = nil
	r.SubTypes["image/png"] = []MediaType{"image/x-png"}
	r.RootTypes = []MediaType{"image/png"}
	r.MagicRules = []MagicEntry{
		{Type: "image/png", Magic: MagicRule{Priority: 50, Conditions: []Match{
			NewSingleMatch(Single{Bytes: []byte{0x89, 'P', 'N', 'G'}}),
		}}},
		{Type: "image/x-png", Magic: MagicRule{Priority: 10}},
	}

	require.NoError(t, r.Validate())
}

func TestRegistry_Validate_UnknownSubType(t *testing.T) {
	r := NewRegistry()
	r.RulesByType["image/png"] = nil
	r.SubTypes["image/png"] = []MediaType{"image/x-png"}

	require.Error(t, r.Validate())
}

func TestRegistry_Validate_UnsortedMagic(t *testing.T) {
	r := NewRegistry()
	r.RulesByType["a"] = nil
	r.RulesByType["b"] = nil
	r.MagicRules = []MagicEntry{
		{Type: "a", Magic: MagicRule{Priority: 10}},
		{Type: "b", Magic: MagicRule{Priority: 50}},
	}

	require.Error(t, r.Validate())
}

func TestRegistry_Validate_MultiOutOfRange(t *testing.T) {
	r := NewRegistry()
	r.RulesByType["a"] = nil
	r.MagicRules = []MagicEntry{
		{Type: "a", Magic: MagicRule{Priority: 1, Conditions: []Match{
			NewMultiMatch(Multi{
				MinToMatch: 3,
				Conditions: []Single{{Bytes: []byte("a")}, {Bytes: []byte("b")}},
			}),
		}}},
	}

	require.Error(t, r.Validate())
}

func TestRegistry_Validate_EmptySingleBytes(t *testing.T) {
	r := NewRegistry()
	r.RulesByType["a"] = nil
	r.MagicRules = []MagicEntry{
		{Type: "a", Magic: MagicRule{Priority: 1, Conditions: []Match{
			NewSingleMatch(Single{Bytes: nil}),
		}}},
	}

	require.Error(t, r.Validate())
}
