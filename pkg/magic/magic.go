// Package magic implements byte-exact evaluation of a compiled
// types.MagicRule against a content buffer.
// Grounded on detect_media_type/src/magic.rs's run_magic, generalized
// to the full Offset range, nested Single nesting, and Multi quorum
// semantics that file left as TODOs.
package magic

import (
	"bytes"
	"fmt"

	"github.com/tombrisland/r4/pkg/types"
)

// maxDepth caps Single nesting the same way pkg/compiler rejects XML
// past maxNestingDepth; Eval enforces it independently so a
// hand-built or loaded-from-disk Registry can't blow the stack either.
const maxDepth = 64

// Eval reports whether rule is satisfied by buf: true iff at least one
// of rule.Conditions matches (conditions are OR'd together).
func Eval(rule types.MagicRule, buf []byte) (bool, error) {
	for _, cond := range rule.Conditions {
		ok, err := evalMatch(cond, buf, 0)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func evalMatch(m types.Match, buf []byte, depth int) (bool, error) {
	if depth > maxDepth {
		return false, fmt.Errorf("magic: condition nesting exceeds %d levels", maxDepth)
	}
	switch m.Kind {
	case types.MatchSingle:
		return evalSingle(m.Single, buf, depth)
	case types.MatchMulti:
		return evalMulti(m.Multi, buf, depth)
	default:
		return false, fmt.Errorf("magic: unknown match kind %d", m.Kind)
	}
}

// evalSingle tries every start position in [From, From+Count] and
// succeeds at the first one where Bytes matches AND, if there are
// nested Conditions, at least one of them also matches (evaluated
// relative to the same buffer, not re-anchored to the parent's start).
func evalSingle(s types.Single, buf []byte, depth int) (bool, error) {
	if depth > maxDepth {
		return false, fmt.Errorf("magic: condition nesting exceeds %d levels", maxDepth)
	}

	lastStart := int(s.Offset.From) + int(s.Offset.Count)
	for start := int(s.Offset.From); start <= lastStart; start++ {
		if !bytesMatchAt(buf, start, s.Bytes) {
			continue
		}
		if len(s.Conditions) == 0 {
			return true, nil
		}
		for _, child := range s.Conditions {
			ok, err := evalSingle(child, buf, depth+1)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
	}
	return false, nil
}

// evalMulti succeeds when at least MinToMatch of its Conditions match
// independently anywhere in buf.
func evalMulti(m types.Multi, buf []byte, depth int) (bool, error) {
	if depth > maxDepth {
		return false, fmt.Errorf("magic: condition nesting exceeds %d levels", maxDepth)
	}

	matched := 0
	for _, cond := range m.Conditions {
		ok, err := evalSingle(cond, buf, depth+1)
		if err != nil {
			return false, err
		}
		if ok {
			matched++
			if matched >= int(m.MinToMatch) {
				return true, nil
			}
		}
	}
	return false, nil
}

func bytesMatchAt(buf []byte, start int, want []byte) bool {
	if start < 0 || len(want) == 0 {
		return false
	}
	end := start + len(want)
	if end > len(buf) {
		return false
	}
	return bytes.Equal(buf[start:end], want)
}
