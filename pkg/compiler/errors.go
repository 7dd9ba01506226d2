package compiler

import "fmt"

// ErrorKind classifies a CompileError the way pkg/matcher/result.go's
// RuleStatus classifies a rule's execution outcome: a small int enum
// with a String() method, not a family of sentinel error values.
type ErrorKind int

const (
	// ErrIO means the input XML could not be opened or read.
	ErrIO ErrorKind = iota
	// ErrXML means the XML itself is malformed. LoadOverrides also
	// reports an unparseable overrides YAML file with this kind.
	ErrXML
	// ErrSchema means a required attribute was missing, a numeric
	// attribute failed to parse, or nesting was illegal (a Multi made
	// the child of another match, or a <match> closed with nothing open).
	ErrSchema
	// ErrDecode means a <match value="..."> could not be decoded (bad
	// 0x hex, or a malformed escape sequence).
	ErrDecode
)

// String renders the ErrorKind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrIO:
		return "io"
	case ErrXML:
		return "xml"
	case ErrSchema:
		return "schema"
	case ErrDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// CompileError is returned by Compile when the Tika mime-types XML
// cannot be turned into a Registry. Kind lets a caller errors.As this
// and branch on the failure category; the message itself is built with
// fmt.Errorf/%w at the call site, same as the rest of the repo.
type CompileError struct {
	Kind ErrorKind
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile: %s: %v", e.Kind, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

func newCompileError(kind ErrorKind, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Err: fmt.Errorf(format, args...)}
}
