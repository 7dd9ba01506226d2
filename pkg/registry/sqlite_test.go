//go:build !wasm

package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombrisland/r4/pkg/types"
)

func TestSQLite_SaveLoad_RoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "registry.db")

	store, err := NewSQLite(dbPath)
	require.NoError(t, err)
	defer store.Close()

	reg := sampleRegistry()
	require.NoError(t, store.Save(reg))

	loaded, err := store.Load()
	require.NoError(t, err)

	assert.ElementsMatch(t, reg.RootTypes, loaded.RootTypes)
	assert.ElementsMatch(t, reg.SubTypes["image/png"], loaded.SubTypes["image/png"])

	pngRules := loaded.RulesByType["image/png"]
	require.Len(t, pngRules, 2)
	assert.Equal(t, types.RuleGlob, pngRules[0].Kind)
	assert.Equal(t, "png", pngRules[0].Glob.Pattern)
	assert.Equal(t, types.RuleMagic, pngRules[1].Kind)
	require.Len(t, pngRules[1].Magic.Conditions, 1)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, pngRules[1].Magic.Conditions[0].Single.Bytes)
}

func TestSQLite_SaveLoad_NestedMagicConditions(t *testing.T) {
	tempDir := t.TempDir()
	store, err := NewSQLite(filepath.Join(tempDir, "registry.db"))
	require.NoError(t, err)
	defer store.Close()

	reg := types.NewRegistry()
	reg.RulesByType["application/json"] = []types.Rule{
		types.NewMagicRule(types.MagicRule{
			Priority: 40,
			Conditions: []types.Match{
				types.NewSingleMatch(types.Single{
					Offset: types.Offset{From: 0, Count: 4},
					Bytes:  []byte("{"),
					Conditions: []types.Single{
						{Bytes: []byte("}")},
					},
				}),
			},
		}),
	}
	reg.RootTypes = []types.MediaType{"application/json"}
	reg.MagicRules = []types.MagicEntry{{Type: "application/json", Magic: reg.RulesByType["application/json"][0].Magic}}

	require.NoError(t, store.Save(reg))
	loaded, err := store.Load()
	require.NoError(t, err)

	rules := loaded.RulesByType["application/json"]
	require.Len(t, rules, 1)
	top := rules[0].Magic.Conditions[0]
	assert.Equal(t, types.MatchSingle, top.Kind)
	assert.Equal(t, types.Offset{From: 0, Count: 4}, top.Single.Offset)
	require.Len(t, top.Single.Conditions, 1)
	assert.Equal(t, []byte("}"), top.Single.Conditions[0].Bytes)
}

func TestSQLite_SaveLoad_MultiCondition(t *testing.T) {
	tempDir := t.TempDir()
	store, err := NewSQLite(filepath.Join(tempDir, "registry.db"))
	require.NoError(t, err)
	defer store.Close()

	reg := types.NewRegistry()
	reg.RulesByType["image/tiff"] = []types.Rule{
		types.NewMagicRule(types.MagicRule{
			Priority: 30,
			Conditions: []types.Match{
				types.NewMultiMatch(types.Multi{
					MinToMatch: 1,
					Conditions: []types.Single{
						{Offset: types.Offset{From: 2}, Bytes: []byte{0x2A, 0x00}},
						{Offset: types.Offset{From: 2}, Bytes: []byte{0x2B, 0x00}},
					},
				}),
			},
		}),
	}
	reg.RootTypes = []types.MediaType{"image/tiff"}
	reg.MagicRules = []types.MagicEntry{{Type: "image/tiff", Magic: reg.RulesByType["image/tiff"][0].Magic}}

	require.NoError(t, store.Save(reg))
	loaded, err := store.Load()
	require.NoError(t, err)

	top := loaded.RulesByType["image/tiff"][0].Magic.Conditions[0]
	require.Equal(t, types.MatchMulti, top.Kind)
	assert.Equal(t, uint8(1), top.Multi.MinToMatch)
	require.Len(t, top.Multi.Conditions, 2)
	assert.Equal(t, []byte{0x2A, 0x00}, top.Multi.Conditions[0].Bytes)
}

func TestSQLite_Save_OverwritesPreviousContents(t *testing.T) {
	tempDir := t.TempDir()
	store, err := NewSQLite(filepath.Join(tempDir, "registry.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(sampleRegistry()))

	second := types.NewRegistry()
	second.RulesByType["text/plain"] = []types.Rule{
		types.NewGlobRule(types.GlobRule{Pattern: "txt", GlobType: types.GlobEndsWith}),
	}
	second.RootTypes = []types.MediaType{"text/plain"}
	second.GlobRules = []types.GlobEntry{{Type: "text/plain", Glob: second.RulesByType["text/plain"][0].Glob}}
	require.NoError(t, store.Save(second))

	loaded, err := store.Load()
	require.NoError(t, err)
	_, hasPNG := loaded.RulesByType["image/png"]
	assert.False(t, hasPNG)
	assert.Contains(t, loaded.RulesByType, types.MediaType("text/plain"))
}

func TestSQLite_SaveLoad_PreservesRuleOrderAcrossTypes(t *testing.T) {
	tempDir := t.TempDir()
	store, err := NewSQLite(filepath.Join(tempDir, "registry.db"))
	require.NoError(t, err)
	defer store.Close()

	reg := types.NewRegistry()
	reg.RulesByType["zebra/type"] = []types.Rule{
		types.NewGlobRule(types.GlobRule{Pattern: "zeb", GlobType: types.GlobEndsWith}),
		types.NewMagicRule(types.MagicRule{Priority: 10, Conditions: []types.Match{
			types.NewSingleMatch(types.Single{Bytes: []byte("ZEB")}),
		}}),
	}
	reg.RulesByType["apple/type"] = []types.Rule{
		types.NewGlobRule(types.GlobRule{Pattern: "app", GlobType: types.GlobEndsWith}),
		types.NewMagicRule(types.MagicRule{Priority: 90, Conditions: []types.Match{
			types.NewSingleMatch(types.Single{Bytes: []byte("APP")}),
		}}),
	}
	reg.RootTypes = []types.MediaType{"zebra/type", "apple/type"}

	// GlobRules lists "zebra then apple", which is not the alphabetical
	// order of the type names; MagicRules lists apple first because its
	// priority is higher. Save must key off these slices, not off a map.
	reg.GlobRules = []types.GlobEntry{
		{Type: "zebra/type", Glob: reg.RulesByType["zebra/type"][0].Glob},
		{Type: "apple/type", Glob: reg.RulesByType["apple/type"][0].Glob},
	}
	reg.MagicRules = []types.MagicEntry{
		{Type: "apple/type", Magic: reg.RulesByType["apple/type"][1].Magic},
		{Type: "zebra/type", Magic: reg.RulesByType["zebra/type"][1].Magic},
	}

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(reg))
		loaded, err := store.Load()
		require.NoError(t, err)

		require.Len(t, loaded.GlobRules, 2)
		assert.Equal(t, types.MediaType("zebra/type"), loaded.GlobRules[0].Type)
		assert.Equal(t, types.MediaType("apple/type"), loaded.GlobRules[1].Type)

		require.Len(t, loaded.MagicRules, 2)
		assert.Equal(t, types.MediaType("apple/type"), loaded.MagicRules[0].Type)
		assert.Equal(t, types.MediaType("zebra/type"), loaded.MagicRules[1].Type)
	}
}

func TestSQLite_Load_EmptyDatabase(t *testing.T) {
	tempDir := t.TempDir()
	store, err := NewSQLite(filepath.Join(tempDir, "registry.db"))
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded.RulesByType)
}
