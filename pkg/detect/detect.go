// Package detect implements the runtime Detection Engine: given an
// optional resource name and a content buffer, it evaluates a compiled
// types.Registry to produce a best-guess media type. Grounded on
// r4_core/src/lib.rs's R4::detect_type/detect_file_type/is_sub_type for
// the algorithm, and on titus.go's Scanner shape (exported facade type
// over unexported config, functional Options, a New* constructor) for
// the surface.
package detect

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tombrisland/r4/pkg/glob"
	"github.com/tombrisland/r4/pkg/hierarchy"
	"github.com/tombrisland/r4/pkg/magic"
	"github.com/tombrisland/r4/pkg/magicprefilter"
	"github.com/tombrisland/r4/pkg/types"
)

// maxSniffBytes is how much of a file DetectFile reads before handing
// the buffer to Detect; magic patterns in practice all live within the
// first kilobyte of a file.
const maxSniffBytes = 1024

// config holds a Detector's tunables. Unexported so callers can only
// reach it through Option functions, the same pattern scannerConfig
// uses in titus.go.
type config struct {
	enableGlob     bool
	enableMagic    bool
	prioritiseGlob bool
	defaultType    types.MediaType
	maxConcurrency int
}

// Option configures a Detector.
type Option func(*config)

// WithGlob toggles glob-rule evaluation. Enabled by default.
func WithGlob(enabled bool) Option {
	return func(c *config) { c.enableGlob = enabled }
}

// WithMagic toggles magic-rule evaluation. Enabled by default.
func WithMagic(enabled bool) Option {
	return func(c *config) { c.enableMagic = enabled }
}

// WithPrioritiseGlob makes a successful glob match win immediately,
// even over a higher-priority magic match. Disabled by default, which
// means magic wins unless a glob also matches, in which case the glob
// result overrides it.
func WithPrioritiseGlob(enabled bool) Option {
	return func(c *config) { c.prioritiseGlob = enabled }
}

// WithDefaultType sets the type DetectOrDefault falls back to when no
// rule matches.
func WithDefaultType(t types.MediaType) Option {
	return func(c *config) { c.defaultType = t }
}

// WithMaxConcurrency records a hint for callers that fan Detect calls
// out across goroutines themselves. A Detector never reads this value:
// every matcher is a pure function over the shared, read-only
// Registry, so there is no internal scheduling to bound. It exists so
// a caller's worker-pool sizing logic has somewhere to live alongside
// the rest of a Detector's configuration instead of as an out-of-band
// parameter.
func WithMaxConcurrency(n int) Option {
	return func(c *config) { c.maxConcurrency = n }
}

// Detector evaluates a Registry against buffers and resource names. It
// holds no mutable state beyond its config and a glob.Matcher's regex
// cache, so a single Detector is safe for concurrent use by any number
// of callers — every matching operation is a pure function over the
// shared, read-only Registry.
type Detector struct {
	reg    *types.Registry
	pf     *magicprefilter.Prefilter
	globm  *glob.Matcher
	config config
}

// New creates a Detector over reg with the given options applied on top
// of the defaults (glob and magic both enabled, prioritiseGlob false,
// no default type).
func New(reg *types.Registry, opts ...Option) *Detector {
	cfg := config{
		enableGlob:  true,
		enableMagic: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Detector{
		reg:    reg,
		pf:     magicprefilter.New(reg.MagicRules),
		globm:  glob.New(),
		config: cfg,
	}
}

// Detect evaluates buf (and, if non-empty, resourceName) against the
// Detector's Registry and returns the best-match media type, or ""
// with ok=false if nothing matched. It never errors: an unreadable or
// empty buffer simply fails to match, matching the contract that
// detection never fails "soft".
func (d *Detector) Detect(resourceName string, buf []byte) (types.MediaType, bool) {
	sig, ok := d.DetectSignature(resourceName, buf)
	if !ok {
		return "", false
	}
	return sig.Type, true
}

// DetectOrDefault is Detect, falling back to the Detector's configured
// default type (if any) when nothing matches.
func (d *Detector) DetectOrDefault(resourceName string, buf []byte) types.MediaType {
	if t, ok := d.Detect(resourceName, buf); ok {
		return t
	}
	return d.config.defaultType
}

// DetectFile opens path, reads up to maxSniffBytes, derives the base
// name as the resource name, and calls Detect. I/O failures are
// propagated rather than swallowed.
func (d *Detector) DetectFile(path string) (types.MediaType, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("detect: opening %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, maxSniffBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", false, fmt.Errorf("detect: reading %s: %w", path, err)
	}

	t, ok := d.Detect(filepath.Base(path), buf[:n])
	return t, ok, nil
}

// detectMagic runs the priority-gated magic scan: magic_rules is sorted
// by descending priority once at compile time, so the scan can stop as
// soon as no remaining rule could outrank the best match found so far.
// possible_types accumulates matches in the order found; a later,
// lower-or-equal priority match for a type that's already a described
// ancestor of something in possible_types is skipped, since the more
// specific answer is already present. The final result is the last
// element appended, i.e. the most specific among same-priority ties.
func (d *Detector) detectMagic(buf []byte) (types.MediaType, bool) {
	isCandidate := make(map[int]bool)
	for _, idx := range d.pf.Candidates(buf) {
		isCandidate[idx] = true
	}

	var possibleTypes []types.MediaType
	lastMatchPriority := 0

	for idx, entry := range d.reg.MagicRules {
		if int(entry.Magic.Priority) < lastMatchPriority {
			break
		}
		if !isCandidate[idx] {
			continue
		}
		if d.hasMoreSpecificMatch(possibleTypes, entry.Type) {
			continue
		}

		ok, err := magic.Eval(entry.Magic, buf)
		if err != nil || !ok {
			continue
		}
		possibleTypes = append(possibleTypes, entry.Type)
		lastMatchPriority = int(entry.Magic.Priority)
	}

	if len(possibleTypes) == 0 {
		return "", false
	}
	return possibleTypes[len(possibleTypes)-1], true
}

// hasMoreSpecificMatch reports whether possibleTypes already contains a
// descendant of t, per is_sub_type(t, other). An earlier match of t
// itself does not count, since a type is never its own subtype.
func (d *Detector) hasMoreSpecificMatch(possibleTypes []types.MediaType, t types.MediaType) bool {
	for _, other := range possibleTypes {
		if hierarchy.IsSubType(d.reg, t, other) {
			return true
		}
	}
	return false
}

// SourceKind records which half of a Detector produced a Signature's
// MediaType.
type SourceKind int

const (
	// SourceMagic means the byte buffer matched a magic rule.
	SourceMagic SourceKind = iota
	// SourceGlob means the resource name matched a glob rule.
	SourceGlob
)

// String renders the SourceKind name.
func (k SourceKind) String() string {
	if k == SourceGlob {
		return "glob"
	}
	return "magic"
}

// Signature pairs a detected MediaType with which rule kind produced
// it, for callers that want to know why Detect returned what it did
// rather than only what it returned. This finishes the BinarySignature
// idea the abandoned r4_core draft left as an unused stub.
type Signature struct {
	Type   types.MediaType
	Source SourceKind
}

// DetectSignature is Detect, but also reports whether the winning
// answer came from a glob or a magic match.
func (d *Detector) DetectSignature(resourceName string, buf []byte) (Signature, bool) {
	haveName := d.config.enableGlob && resourceName != ""

	if d.config.prioritiseGlob && haveName {
		if globResult, ok := d.detectGlob(resourceName); ok {
			return Signature{Type: globResult, Source: SourceGlob}, true
		}
	}

	var magicResult types.MediaType
	var haveMagic bool
	if d.config.enableMagic {
		magicResult, haveMagic = d.detectMagic(buf)
	}

	if haveName && !d.config.prioritiseGlob {
		if globResult, ok := d.detectGlob(resourceName); ok {
			return Signature{Type: globResult, Source: SourceGlob}, true
		}
	}

	if haveMagic {
		return Signature{Type: magicResult, Source: SourceMagic}, true
	}
	return Signature{}, false
}

// detectGlob returns the first GlobRule that matches name, in registry
// order.
func (d *Detector) detectGlob(name string) (types.MediaType, bool) {
	for _, entry := range d.reg.GlobRules {
		ok, err := d.globm.Match(entry.Glob, name)
		if err != nil || !ok {
			continue
		}
		return entry.Type, true
	}
	return "", false
}
