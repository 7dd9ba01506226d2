// Package compiler walks a Tika mime-types.xml document and produces a
// types.Registry. This is the build-time half of the system; nothing
// here runs at detection time.
package compiler

import (
	"encoding/xml"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/tombrisland/r4/pkg/types"
)

const (
	elemMimeType    = "mime-type"
	elemGlob        = "glob"
	elemMagic       = "magic"
	elemMatch       = "match"
	elemSubClassOf  = "sub-class-of"
	attrType        = "type"
	attrPattern     = "pattern"
	attrIsRegex     = "isregex"
	attrPriority    = "priority"
	attrOffset      = "offset"
	attrValue       = "value"
	attrMinShould   = "minShouldMatch"
	maxNestingDepth = 64
)

// openElement is one entry on the element stack: the local name plus
// its attributes, captured at StartElement time so they're still
// available when the matching EndElement arrives.
type openElement struct {
	name  string
	attrs map[string]string
}

// CompileFile opens path and compiles it, wrapping any I/O failure as
// an ErrIO CompileError.
func CompileFile(path string) (*types.Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newCompileError(ErrIO, "opening %s: %w", path, err)
	}
	defer f.Close()
	return Compile(f)
}

// Compile parses the Tika mime-types XML read from r into a Registry,
// building the per-type rule lists, the flattened priority-sorted
// magic list, the flattened glob list, and the subclass hierarchy.
func Compile(r io.Reader) (*types.Registry, error) {
	dec := xml.NewDecoder(r)

	var (
		elements    []openElement
		currRules   []types.Rule
		currMagic   *types.MagicRule
		currParent  types.MediaType
		hasParent   bool
		nestedMatch []types.Match

		orderedTypes []types.MediaType
		rulesByType  = make(map[types.MediaType][]types.Rule)
		subTypes     = make(map[types.MediaType][]types.MediaType)
		rootTypes    []types.MediaType
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, newCompileError(ErrXML, "reading token: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			name := el.Name.Local
			attrs := attrMap(el)

			switch name {
			case elemGlob:
				pattern, ok := attrs[attrPattern]
				if !ok {
					return nil, newCompileError(ErrSchema, "<glob> missing required %q attribute", attrPattern)
				}
				isRegex := attrs[attrIsRegex] == "true"
				currRules = append(currRules, types.NewGlobRule(compileGlob(pattern, isRegex)))

			case elemMagic:
				priority := uint8(0)
				if raw, ok := attrs[attrPriority]; ok {
					p, err := strconv.ParseUint(raw, 10, 8)
					if err != nil {
						return nil, newCompileError(ErrSchema, "<magic priority=%q>: %w", raw, err)
					}
					priority = uint8(p)
				}
				currMagic = &types.MagicRule{Priority: priority}

			case elemMatch:
				if len(nestedMatch) >= maxNestingDepth {
					return nil, newCompileError(ErrSchema, "<match> nesting exceeds %d levels", maxNestingDepth)
				}
				m, err := buildMatchCondition(attrs)
				if err != nil {
					return nil, err
				}
				nestedMatch = append(nestedMatch, m)

			case elemSubClassOf:
				parent, ok := attrs[attrType]
				if !ok {
					return nil, newCompileError(ErrSchema, "<sub-class-of> missing required %q attribute", attrType)
				}
				// Tika allows multiple parents; this compiler keeps only
				// the last one seen.
				currParent = types.MediaType(parent)
				hasParent = true
			}

			elements = append(elements, openElement{name: name, attrs: attrs})

		case xml.EndElement:
			if len(elements) == 0 {
				return nil, newCompileError(ErrXML, "end element %q with no open element", el.Name.Local)
			}
			top := elements[len(elements)-1]
			elements = elements[:len(elements)-1]

			switch top.name {
			case elemMatch:
				if len(nestedMatch) == 0 {
					return nil, newCompileError(ErrSchema, "</match> with no open match condition")
				}
				current := nestedMatch[len(nestedMatch)-1]
				nestedMatch = nestedMatch[:len(nestedMatch)-1]

				if len(elements) > 0 && elements[len(elements)-1].name == elemMatch {
					parent := &nestedMatch[len(nestedMatch)-1]
					if err := parent.AddChild(current); err != nil {
						return nil, newCompileError(ErrSchema, "%w", err)
					}
				} else if currMagic != nil {
					currMagic.Conditions = append(currMagic.Conditions, current)
				}

			case elemMagic:
				if currMagic == nil {
					return nil, newCompileError(ErrSchema, "</magic> with no open magic rule")
				}
				currRules = append(currRules, types.NewMagicRule(*currMagic))
				currMagic = nil

			case elemMimeType:
				mediaType, ok := top.attrs[attrType]
				if !ok {
					return nil, newCompileError(ErrSchema, "<mime-type> missing required %q attribute", attrType)
				}
				mt := types.MediaType(mediaType)

				cloned := make([]types.Rule, len(currRules))
				copy(cloned, currRules)

				if _, exists := rulesByType[mt]; !exists {
					orderedTypes = append(orderedTypes, mt)
				}
				rulesByType[mt] = cloned

				if hasParent {
					subTypes[currParent] = append(subTypes[currParent], mt)
				} else {
					rootTypes = append(rootTypes, mt)
				}

				currRules = nil
				currParent = ""
				hasParent = false
			}
		}
	}

	reg := &types.Registry{
		RulesByType: rulesByType,
		SubTypes:    subTypes,
		RootTypes:   rootTypes,
	}
	populateFlatLists(reg, orderedTypes)

	if err := reg.Validate(); err != nil {
		return nil, newCompileError(ErrSchema, "%w", err)
	}
	return reg, nil
}

// buildMatchCondition implements rule_gen/build.rs's
// create_match_condition: a minShouldMatch attribute means a Multi
// shell (conditions filled in by later AddChild calls); otherwise it's
// a Single built from value+offset.
func buildMatchCondition(attrs map[string]string) (types.Match, error) {
	if raw, ok := attrs[attrMinShould]; ok {
		min, err := strconv.ParseUint(raw, 10, 8)
		if err != nil {
			return types.Match{}, newCompileError(ErrSchema, "<match minShouldMatch=%q>: %w", raw, err)
		}
		return types.NewMultiMatch(types.Multi{MinToMatch: uint8(min)}), nil
	}

	value, ok := attrs[attrValue]
	if !ok {
		return types.Match{}, newCompileError(ErrSchema, "<match> missing required %q attribute", attrValue)
	}
	bytes, err := decodeValue(value)
	if err != nil {
		return types.Match{}, err
	}
	offset, err := parseOffset(attrs[attrOffset])
	if err != nil {
		return types.Match{}, err
	}
	return types.NewSingleMatch(types.Single{Offset: offset, Bytes: bytes}), nil
}

// populateFlatLists builds Registry.MagicRules (sorted by descending
// priority, stable on ties) and Registry.GlobRules (XML order) by
// flattening RulesByType in the order types were first seen.
func populateFlatLists(reg *types.Registry, orderedTypes []types.MediaType) {
	for _, mt := range orderedTypes {
		for _, rule := range reg.RulesByType[mt] {
			switch rule.Kind {
			case types.RuleGlob:
				reg.GlobRules = append(reg.GlobRules, types.GlobEntry{Type: mt, Glob: rule.Glob})
			case types.RuleMagic:
				reg.MagicRules = append(reg.MagicRules, types.MagicEntry{Type: mt, Magic: rule.Magic})
			}
		}
	}

	sort.SliceStable(reg.MagicRules, func(i, j int) bool {
		return reg.MagicRules[i].Magic.Priority > reg.MagicRules[j].Magic.Priority
	})
}

func attrMap(el xml.StartElement) map[string]string {
	m := make(map[string]string, len(el.Attr))
	for _, a := range el.Attr {
		m[a.Name.Local] = a.Value
	}
	return m
}
