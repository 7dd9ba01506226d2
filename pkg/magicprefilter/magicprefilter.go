// Package magicprefilter narrows the set of magic rules worth fully
// evaluating against a buffer, the way pkg/prefilter used Aho-Corasick
// to narrow secrets rules by keyword before running their regexes.
// Here the "keywords" are each Single condition's literal byte run.
package magicprefilter

import (
	"github.com/cloudflare/ahocorasick"

	"github.com/tombrisland/r4/pkg/types"
)

// Prefilter maps literal byte strings drawn from magic rules to the
// MagicEntry indices that contain them, so a single Aho-Corasick pass
// over a buffer tells the detection engine which rules can possibly
// match without evaluating every rule's full offset/nesting logic.
type Prefilter struct {
	matcher       *ahocorasick.Matcher
	literals      [][]byte
	literalToRule map[int][]int // literal index -> indices into entries that contain that literal
	entries       []types.MagicEntry
	noLiteral     []int // indices into entries with at least one offset-ranged, Multi or empty top-level condition, so no literal set is extracted
}

// New builds a Prefilter over entries. Entries whose top-level
// conditions are all plain, zero-count-offset Singles contribute their
// bytes as literals (nested children are not inspected: the parent's
// bytes must be present either way); anything else (a ranged offset, a
// Multi) is conservatively always checked, the same way
// pkg/prefilter always re-checks rules with no keywords.
func New(entries []types.MagicEntry) *Prefilter {
	pf := &Prefilter{
		literalToRule: make(map[int][]int),
		entries:       entries,
	}

	seen := make(map[string]int)
	for idx, entry := range entries {
		literals := extractLiterals(entry.Magic)
		if len(literals) == 0 {
			pf.noLiteral = append(pf.noLiteral, idx)
			continue
		}
		for _, lit := range literals {
			key := string(lit)
			litIdx, ok := seen[key]
			if !ok {
				litIdx = len(pf.literals)
				seen[key] = litIdx
				pf.literals = append(pf.literals, lit)
			}
			pf.literalToRule[litIdx] = append(pf.literalToRule[litIdx], idx)
		}
	}

	if len(pf.literals) > 0 {
		pf.matcher = ahocorasick.NewMatcher(pf.literals)
	}
	return pf
}

// Candidates returns the indices into entries (the slice passed to
// New) that buf could possibly satisfy: every no-literal rule, plus
// every rule whose extracted literal was found anywhere in buf.
func (pf *Prefilter) Candidates(buf []byte) []int {
	result := append([]int(nil), pf.noLiteral...)
	if pf.matcher == nil {
		return result
	}

	seen := make(map[int]bool, len(result))
	for _, idx := range result {
		seen[idx] = true
	}

	for _, hit := range pf.matcher.Match(buf) {
		for _, idx := range pf.literalToRule[hit] {
			if !seen[idx] {
				seen[idx] = true
				result = append(result, idx)
			}
		}
	}
	return result
}

// extractLiterals returns a top-level Single's Bytes when every
// top-level condition in rule is a Single with Count == 0 (so the
// literal is guaranteed to appear verbatim rather than at one of
// several candidate offsets); otherwise it returns nil, deferring to
// the always-checked path.
func extractLiterals(rule types.MagicRule) [][]byte {
	var literals [][]byte
	for _, cond := range rule.Conditions {
		if cond.Kind != types.MatchSingle || cond.Single.Offset.Count != 0 || len(cond.Single.Bytes) == 0 {
			return nil
		}
		literals = append(literals, cond.Single.Bytes)
	}
	return literals
}
