package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractPlain decodes a text upload. A leading UTF-8 byte order mark is
// dropped and invalid sequences become U+FFFD.
func extractPlain(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	return cleanText(string(content)), nil
}

// cleanText makes extracted text safe to chunk: invalid UTF-8 is replaced and
// NUL bytes, which PDF text streams sometimes carry, become spaces so they
// split words instead of gluing them together.
func cleanText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\ufffd")
	}
	return strings.ReplaceAll(s, "\x00", " ")
}
