// Package encoding converts fixed-size text fields found in binary model formats.
package encoding

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ToUTF8 converts legacy 8-bit text to UTF-8. Valid UTF-8 is returned
// unchanged; anything else is read as Windows-1252, which is what most
// desktop exporters write into free-form header fields.
func ToUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(bytes.ToValidUTF8(data, []byte("�")))
	}
	return string(result)
}

// TrimPadding removes trailing NUL and space padding.
func TrimPadding(data []byte) []byte {
	return bytes.TrimRight(data, "\x00 ")
}

// FixedStringToUTF8 converts a fixed-size text field to a UTF-8 string.
// The field ends at the first NUL byte; trailing spaces are dropped.
func FixedStringToUTF8(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return ToUTF8(TrimPadding(data))
}

// UTF8ToFixedString returns s as a NUL-padded field of exactly size bytes.
// Text that does not fit is cut at a rune boundary so the field stays valid
// UTF-8.
func UTF8ToFixedString(s string, size int) []byte {
	result := make([]byte, size)
	n := 0
	for _, r := range s {
		if n+utf8.RuneLen(r) > size {
			break
		}
		n += utf8.EncodeRune(result[n:], r)
	}
	return result
}
