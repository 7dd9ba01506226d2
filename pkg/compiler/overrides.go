package compiler

import (
	"os"

	"github.com/tombrisland/r4/pkg/types"
	"gopkg.in/yaml.v3"
)

// overrideFile is the on-disk shape of a hand-authored overlay: extra
// glob or magic rules to compile in alongside whatever the Tika XML
// produced for the same MediaType. This mirrors pkg/rule/yaml.go's
// intermediate yamlRule/yamlRulesFile structs in the teacher, re-keyed
// from NoseyParker's "pattern/examples/categories" shape to r4's
// "glob/magic" shape.
type overrideFile struct {
	Overrides []yamlOverride `yaml:"overrides"`
}

type yamlOverride struct {
	MediaType string           `yaml:"media_type"`
	Globs     []yamlGlob       `yaml:"globs,omitempty"`
	Magic     []yamlMagicEntry `yaml:"magic,omitempty"`
}

type yamlGlob struct {
	Pattern string `yaml:"pattern"`
	Regex   bool   `yaml:"regex,omitempty"`
}

type yamlMagicEntry struct {
	Priority uint8  `yaml:"priority"`
	Value    string `yaml:"value"`
	Offset   string `yaml:"offset,omitempty"`
}

// LoadOverrides reads an overlay file and applies it to reg in place,
// appending each override's glob/magic rules to the named MediaType's
// rule list (creating the type if it's new) and refreshing the
// flattened, priority-sorted lists afterward.
func LoadOverrides(reg *types.Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newCompileError(ErrIO, "reading overrides %s: %w", path, err)
	}

	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return newCompileError(ErrXML, "parsing overrides %s: %w", path, err)
	}

	var orderedTypes []types.MediaType
	for mt := range reg.RulesByType {
		orderedTypes = append(orderedTypes, mt)
	}

	for _, ov := range file.Overrides {
		if ov.MediaType == "" {
			return newCompileError(ErrSchema, "override missing required media_type field")
		}
		mt := types.MediaType(ov.MediaType)
		if _, exists := reg.RulesByType[mt]; !exists {
			orderedTypes = append(orderedTypes, mt)
		}

		for _, g := range ov.Globs {
			reg.RulesByType[mt] = append(reg.RulesByType[mt], types.NewGlobRule(compileGlob(g.Pattern, g.Regex)))
		}
		for _, m := range ov.Magic {
			value, err := decodeValue(m.Value)
			if err != nil {
				return err
			}
			offset, err := parseOffset(m.Offset)
			if err != nil {
				return err
			}
			rule := types.MagicRule{
				Priority:   m.Priority,
				Conditions: []types.Match{types.NewSingleMatch(types.Single{Offset: offset, Bytes: value})},
			}
			reg.RulesByType[mt] = append(reg.RulesByType[mt], types.NewMagicRule(rule))
		}
	}

	reg.MagicRules = nil
	reg.GlobRules = nil
	populateFlatLists(reg, sortedKeys(reg.RulesByType, orderedTypes))

	if err := reg.Validate(); err != nil {
		return newCompileError(ErrSchema, "%w", err)
	}
	return nil
}

// sortedKeys returns every MediaType in reg, preferring the supplied
// order (which already lists every known type at least once) and
// falling back to appending any stragglers — defensive against an
// override introducing a type twice.
func sortedKeys(rulesByType map[types.MediaType][]types.Rule, preferred []types.MediaType) []types.MediaType {
	seen := make(map[types.MediaType]bool, len(preferred))
	out := make([]types.MediaType, 0, len(rulesByType))
	for _, mt := range preferred {
		if !seen[mt] {
			seen[mt] = true
			out = append(out, mt)
		}
	}
	for mt := range rulesByType {
		if !seen[mt] {
			seen[mt] = true
			out = append(out, mt)
		}
	}
	return out
}
