package types

import "fmt"

// Registry is the compiled root object produced by the XML rule
// compiler and restored as-is by the registry loader. It is built once
// and treated as immutable thereafter; callers share it by reference.
type Registry struct {
	// RulesByType maps a MediaType to its ordered rules: glob rules
	// first, then magic rules, preserving the source XML order.
	RulesByType map[MediaType][]Rule

	// MagicRules is every (MediaType, MagicRule) pair, flattened out of
	// RulesByType and sorted by descending Priority (stable on ties).
	MagicRules []MagicEntry

	// GlobRules is every (MediaType, GlobRule) pair, in XML order.
	GlobRules []GlobEntry

	// SubTypes maps a MediaType to its immediate subclass children.
	SubTypes map[MediaType][]MediaType

	// RootTypes lists the MediaTypes with no sub-class-of parent.
	RootTypes []MediaType
}

// NewRegistry returns an empty, ready-to-populate Registry.
func NewRegistry() *Registry {
	return &Registry{
		RulesByType: make(map[MediaType][]Rule),
		SubTypes:    make(map[MediaType][]MediaType),
	}
}

// Validate checks the invariants spec'd for a Registry: every type
// referenced by SubTypes/RootTypes has a RulesByType entry, MagicRules
// is sorted by descending priority, and every Multi's MinToMatch is
// within range of its Conditions.
func (r *Registry) Validate() error {
	for parent, children := range r.SubTypes {
		if _, ok := r.RulesByType[parent]; !ok {
			return fmt.Errorf("registry: sub_types references unknown parent type %q", parent)
		}
		for _, c := range children {
			if _, ok := r.RulesByType[c]; !ok {
				return fmt.Errorf("registry: sub_types references unknown child type %q", c)
			}
		}
	}
	for _, t := range r.RootTypes {
		if _, ok := r.RulesByType[t]; !ok {
			return fmt.Errorf("registry: root_types references unknown type %q", t)
		}
	}

	lastPriority := 256 // above the uint8 max, so the first entry always passes
	for _, entry := range r.MagicRules {
		if int(entry.Magic.Priority) > lastPriority {
			return fmt.Errorf("registry: magic_rules is not sorted by descending priority")
		}
		lastPriority = int(entry.Magic.Priority)

		if err := validateMagicRule(entry.Type, entry.Magic); err != nil {
			return err
		}
	}

	return nil
}

func validateMagicRule(t MediaType, rule MagicRule) error {
	for _, cond := range rule.Conditions {
		if err := validateMatch(t, cond); err != nil {
			return err
		}
	}
	return nil
}

func validateMatch(t MediaType, m Match) error {
	switch m.Kind {
	case MatchSingle:
		return validateSingle(t, m.Single)
	case MatchMulti:
		if len(m.Multi.Conditions) == 0 {
			return fmt.Errorf("registry: %s: multi condition has no sub-conditions", t)
		}
		if int(m.Multi.MinToMatch) > len(m.Multi.Conditions) || m.Multi.MinToMatch < 1 {
			return fmt.Errorf("registry: %s: min_to_match %d out of range for %d conditions",
				t, m.Multi.MinToMatch, len(m.Multi.Conditions))
		}
		for _, s := range m.Multi.Conditions {
			if err := validateSingle(t, s); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("registry: %s: unknown match kind %d", t, m.Kind)
	}
	return nil
}

func validateSingle(t MediaType, s Single) error {
	if len(s.Bytes) == 0 {
		return fmt.Errorf("registry: %s: single condition has empty byte sequence", t)
	}
	for _, c := range s.Conditions {
		if err := validateSingle(t, c); err != nil {
			return err
		}
	}
	return nil
}
