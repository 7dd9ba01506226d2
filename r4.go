// Package r4 detects the media type (MIME type) of content from its
// bytes, its resource name, or both, using a registry of rules compiled
// from a Tika-style mime-types.xml.
//
// # Basic Usage
//
// Load a compiled registry and detect the type of some bytes:
//
//	store, err := registry.New(registry.Config{Path: "registry.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	reg, err := store.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	detector := r4.NewDetector(reg)
//	mediaType, ok := detector.Detect("photo.png", data)
//
// # Compiling a registry
//
// Registries are compiled ahead of time from Tika mime-types.xml by
// cmd/r4gen; this package only consumes the compiled result.
package r4

import (
	"github.com/tombrisland/r4/pkg/detect"
	"github.com/tombrisland/r4/pkg/types"
)

// Re-export the rule-model types so callers need only import
// "github.com/tombrisland/r4" for everyday use.
type (
	// MediaType is a canonical MIME type such as "image/png".
	MediaType = types.MediaType

	// Registry is the compiled rule set a Detector evaluates against.
	Registry = types.Registry

	// Option configures a Detector.
	Option = detect.Option

	// Signature pairs a detected MediaType with which rule kind (glob
	// or magic) produced it.
	Signature = detect.Signature

	// SourceKind tags which half of a Detector produced a Signature.
	SourceKind = detect.SourceKind
)

// Re-export SourceKind values.
const (
	// SourceMagic means the byte buffer matched a magic rule.
	SourceMagic = detect.SourceMagic
	// SourceGlob means the resource name matched a glob rule.
	SourceGlob = detect.SourceGlob
)

// Re-export Detector construction options.
var (
	// WithGlob toggles glob-rule evaluation. Enabled by default.
	WithGlob = detect.WithGlob

	// WithMagic toggles magic-rule evaluation. Enabled by default.
	WithMagic = detect.WithMagic

	// WithPrioritiseGlob makes a successful glob match win immediately,
	// even over a higher-priority magic match.
	WithPrioritiseGlob = detect.WithPrioritiseGlob

	// WithDefaultType sets the type DetectOrDefault falls back to when
	// no rule matches.
	WithDefaultType = detect.WithDefaultType

	// WithMaxConcurrency records a hint for callers that fan Detect
	// calls out across goroutines themselves; the Detector itself never
	// reads it.
	WithMaxConcurrency = detect.WithMaxConcurrency
)

// Detector evaluates a Registry against buffers and resource names to
// produce a best-guess media type. A single Detector is safe for
// concurrent use.
type Detector = detect.Detector

// NewDetector creates a Detector over reg with the given options
// applied on top of the defaults (glob and magic both enabled,
// prioritiseGlob false, no default type).
//
// Example:
//
//	// Default detector
//	d := r4.NewDetector(reg)
//
//	// Glob always wins when it matches
//	d := r4.NewDetector(reg, r4.WithPrioritiseGlob(true))
func NewDetector(reg *Registry, opts ...Option) *Detector {
	return detect.New(reg, opts...)
}
