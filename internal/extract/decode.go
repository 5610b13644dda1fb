package extract

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode converts extractor output to a string. Apple's tools write UTF-16
// with a byte order mark; UTF-8 with or without a mark is accepted too.
// BOM-less input with NUL bytes in its first code unit is read as UTF-16.
func Decode(data []byte) (string, error) {
	var fallback encoding.Encoding = unicode.UTF8
	switch {
	case len(data) >= 2 && data[0] != 0 && data[1] == 0:
		fallback = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case len(data) >= 2 && data[0] == 0 && data[1] != 0:
		fallback = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(fallback.NewDecoder()), data)
	if err != nil {
		return "", fmt.Errorf("decode extractor output: %w", err)
	}
	return string(out), nil
}
