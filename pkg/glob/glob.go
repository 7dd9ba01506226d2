// Package glob decides whether a resource name satisfies a compiled
// types.GlobRule.
package glob

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/tombrisland/r4/pkg/types"
)

// matchTimeout bounds a single regex glob evaluation, the same
// defensive timeout pkg/matcher/regexp.go sets on every compiled
// regexp2.Regexp to cap catastrophic backtracking.
const matchTimeout = 2 * time.Second

// Matcher evaluates GlobRules against resource names, caching compiled
// regexp2 patterns across calls so a registry with many Regex globs
// only pays compilation cost once per distinct pattern.
type Matcher struct {
	mu    sync.Mutex
	cache map[string]*regexp2.Regexp
}

// New creates a Matcher with an empty regex cache.
func New() *Matcher {
	return &Matcher{cache: make(map[string]*regexp2.Regexp)}
}

// Match reports whether name satisfies rule. An empty Pattern never
// matches, regardless of GlobType: Go's strings.HasPrefix/HasSuffix/
// Contains all treat "" as a trivial match, which would otherwise make
// an empty-pattern rule match every name.
func (m *Matcher) Match(rule types.GlobRule, name string) (bool, error) {
	if rule.Pattern == "" {
		return false, nil
	}

	switch rule.GlobType {
	case types.GlobStartsWith:
		return strings.HasPrefix(name, rule.Pattern), nil
	case types.GlobEndsWith:
		return strings.HasSuffix(name, rule.Pattern), nil
	case types.GlobContains:
		return strings.Contains(name, rule.Pattern), nil
	case types.GlobRegex:
		return m.matchRegex(rule.Pattern, name)
	default:
		return false, fmt.Errorf("glob: unknown glob type %d", rule.GlobType)
	}
}

func (m *Matcher) matchRegex(pattern, name string) (bool, error) {
	re, err := m.compile(pattern)
	if err != nil {
		return false, err
	}
	match, err := re.MatchString(name)
	if err != nil {
		return false, fmt.Errorf("glob: evaluating regex %q: %w", pattern, err)
	}
	return match, nil
}

func (m *Matcher) compile(pattern string) (*regexp2.Regexp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if re, ok := m.cache[pattern]; ok {
		return re, nil
	}

	re, err := regexp2.Compile(pattern, regexp2.RE2)
	if err != nil {
		re, err = regexp2.Compile(pattern, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("glob: compiling regex %q: %w", pattern, err)
		}
	}
	re.MatchTimeout = matchTimeout

	m.cache[pattern] = re
	return re, nil
}
