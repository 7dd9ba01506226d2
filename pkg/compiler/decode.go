package compiler

import (
	"strconv"
	"strings"

	"github.com/tombrisland/r4/pkg/types"
)

// parseOffset implements rule_def::Offset::from_attr: no attribute
// means {0,0}; "N" means {N,0}; "N:M" means {N,M}.
func parseOffset(attr string) (types.Offset, error) {
	if attr == "" {
		return types.Offset{}, nil
	}

	start, count, hasCount := strings.Cut(attr, ":")
	from, err := strconv.ParseUint(start, 10, 32)
	if err != nil {
		return types.Offset{}, newCompileError(ErrSchema, "offset %q: invalid start: %w", attr, err)
	}
	if !hasCount {
		return types.Offset{From: uint32(from)}, nil
	}

	c, err := strconv.ParseUint(count, 10, 32)
	if err != nil {
		return types.Offset{}, newCompileError(ErrSchema, "offset %q: invalid count: %w", attr, err)
	}
	return types.Offset{From: uint32(from), Count: uint32(c)}, nil
}

// decodeValue decodes a <match value="..."> attribute into raw bytes: a
// leading "0x" means the rest is contiguous hex pairs; otherwise the
// string is scanned for backslash escapes ("\\\\"
// -> 0x5C, "\\xNN" -> that byte), with any other escape silently
// dropped, and every other character emitted as its UTF-8 bytes. This
// mirrors the hand-rolled scanning loop in rule_gen/build.rs, which has
// no documented behaviour for escapes other than those two.
func decodeValue(value string) ([]byte, error) {
	if strings.HasPrefix(value, "0x") {
		return decodeHex(value[2:])
	}
	return decodeEscaped(value)
}

func decodeHex(hex string) ([]byte, error) {
	if len(hex)%2 != 0 {
		return nil, newCompileError(ErrDecode, "0x value %q has an odd number of hex digits", hex)
	}
	out := make([]byte, len(hex)/2)
	for i := 0; i < len(out); i++ {
		b, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, newCompileError(ErrDecode, "0x value %q: invalid hex pair at %d: %w", hex, i*2, err)
		}
		out[i] = byte(b)
	}
	return out, nil
}

func decodeEscaped(value string) ([]byte, error) {
	var out []byte
	runes := []byte(value)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}

		if i+1 >= len(runes) {
			// Trailing lone backslash: nothing follows to escape, drop it.
			break
		}
		switch runes[i+1] {
		case '\\':
			out = append(out, 0x5C)
			i++
		case 'x':
			if i+3 >= len(runes) {
				return nil, newCompileError(ErrDecode, "value %q: truncated \\x escape", value)
			}
			b, err := strconv.ParseUint(string(runes[i+2:i+4]), 16, 8)
			if err != nil {
				return nil, newCompileError(ErrDecode, "value %q: invalid \\x escape: %w", value, err)
			}
			out = append(out, byte(b))
			i += 3
		default:
			// All other escape followers are undefined in the source
			// (the branch is empty there); this spec documents them as
			// dropped rather than emitted. Both the backslash and the
			// follower are skipped.
			i++
		}
	}
	return out, nil
}
