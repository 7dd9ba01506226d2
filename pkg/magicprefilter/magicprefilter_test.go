package magicprefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tombrisland/r4/pkg/types"
)

func sampleEntries() []types.MagicEntry {
	return []types.MagicEntry{
		{Type: "image/png", Magic: types.MagicRule{
			Priority: 50,
			Conditions: []types.Match{
				types.NewSingleMatch(types.Single{Bytes: []byte{0x89, 0x50, 0x4e, 0x47}}),
			},
		}},
		{Type: "image/gif", Magic: types.MagicRule{
			Priority: 50,
			Conditions: []types.Match{
				types.NewSingleMatch(types.Single{Bytes: []byte("GIF87a")}),
				types.NewSingleMatch(types.Single{Bytes: []byte("GIF89a")}),
			},
		}},
		{Type: "application/json", Magic: types.MagicRule{
			Priority: 40,
			Conditions: []types.Match{
				types.NewSingleMatch(types.Single{
					Offset: types.Offset{From: 0, Count: 4},
					Bytes:  []byte("{"),
				}),
			},
		}},
	}
}

func TestPrefilter_MatchesLiteralOwner(t *testing.T) {
	pf := New(sampleEntries())
	candidates := pf.Candidates([]byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a})
	assert.Contains(t, candidates, 0)
}

func TestPrefilter_NoLiteralAlwaysCandidate(t *testing.T) {
	pf := New(sampleEntries())
	candidates := pf.Candidates([]byte("completely unrelated content"))
	assert.Contains(t, candidates, 2) // ranged offset => always a candidate
	assert.NotContains(t, candidates, 0)
	assert.NotContains(t, candidates, 1)
}

func TestPrefilter_MultipleLiteralsSameRule(t *testing.T) {
	pf := New(sampleEntries())
	candidates := pf.Candidates([]byte("GIF89a and some pixels"))
	assert.Contains(t, candidates, 1)
}

func TestPrefilter_EmptyEntries(t *testing.T) {
	pf := New(nil)
	assert.Empty(t, pf.Candidates([]byte("anything")))
}
