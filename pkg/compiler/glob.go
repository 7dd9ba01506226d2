package compiler

import (
	"strings"

	"github.com/tombrisland/r4/pkg/types"
)

// compileGlob derives a GlobRule's GlobType from the raw pattern and an
// optional isregex attribute, then strips the literal '*' markers from
// the stored pattern. The original Rust draft
// (detect_media_type/src/glob.rs) only ever implements EndsWith; this
// also derives Regex (isregex), Contains (leading and trailing '*'),
// StartsWith (trailing '*'), and a plain literal pattern (modeled as
// StartsWith on the full pattern, the closest primitive to an exact
// match).
func compileGlob(pattern string, isRegex bool) types.GlobRule {
	if isRegex {
		return types.GlobRule{Pattern: pattern, GlobType: types.GlobRegex}
	}

	leading := strings.HasPrefix(pattern, "*")
	trailing := strings.HasSuffix(pattern, "*")

	var globType types.GlobType
	switch {
	case leading && trailing:
		globType = types.GlobContains
	case leading:
		globType = types.GlobEndsWith
	case trailing:
		globType = types.GlobStartsWith
	default:
		globType = types.GlobStartsWith
	}

	return types.GlobRule{
		Pattern:  strings.ReplaceAll(pattern, "*", ""),
		GlobType: globType,
	}
}
