package lexer

import (
	"bytes"

	"golang.org/x/text/unicode/norm"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// normalizeSource strips a leading UTF-8 BOM and applies Unicode NFC
// normalization, so that lexically equivalent source text produces an
// identical token stream regardless of how its composed/decomposed forms
// arrived on disk. Grounded on the teacher's internal/lexer/normalize.go,
// which does the same two steps ahead of its own scanner.
func normalizeSource(src []byte) []byte {
	src = bytes.TrimPrefix(src, utf8BOM)
	if !norm.NFC.IsNormal(src) {
		src = norm.NFC.Bytes(src)
	}
	return src
}
