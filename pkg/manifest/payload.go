package manifest

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// decodeHex decodes hexadecimal digits, ignoring whitespace and an optional
// leading 0x.
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return data, nil
}

// ParseInline parses a patch written as OFFSET:LENGTH:HEX, the form accepted
// by the --replace flag. OFFSET and LENGTH accept 0x, 0o and 0b prefixes; an
// empty HEX deletes the range.
func ParseInline(spec string) (Patch, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return Patch{}, &ValidationError{
			Field:   spec,
			Message: "expected OFFSET:LENGTH:HEX",
		}
	}

	offset, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 0, 0)
	if err != nil {
		return Patch{}, &ValidationError{Field: spec, Message: "invalid offset " + strconv.Quote(parts[0])}
	}
	length, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 0, 0)
	if err != nil {
		return Patch{}, &ValidationError{Field: spec, Message: "invalid length " + strconv.Quote(parts[1])}
	}

	patch := Patch{
		Offset: int(offset),
		Length: int(length),
		Hex:    strings.TrimSpace(parts[2]),
	}
	if verr := validatePatch(patch); verr != nil {
		verr.Field = spec
		return Patch{}, verr
	}
	return patch, nil
}
