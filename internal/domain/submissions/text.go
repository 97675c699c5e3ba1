package submissions

import (
	"bytes"
	"unicode/utf8"

	"github.com/bryanwahyu/ugc-sentinel/internal/domain/faults"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText returns content as a string if it is valid UTF-8.
func DecodeText(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return "", faults.Newf(faults.KindDecode, "text.decode", "content is not valid utf-8")
	}
	return string(content), nil
}
