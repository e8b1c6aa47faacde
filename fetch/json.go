package fetch

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"
)

// parseJSON decodes a buffered response body. An empty body yields nil
// without error. With fixCtlChars set, raw control characters inside string
// literals are escaped first so otherwise-invalid payloads still parse.
func parseJSON(data []byte, fixCtlChars bool) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if fixCtlChars {
		data = sanitizeCtlChars(data)
	}
	var v any
	if err := sonic.Unmarshal(data, &v); err != nil {
		return nil, NewParseError(err)
	}
	return v, nil
}

// sanitizeCtlChars escapes raw control characters appearing inside JSON
// string literals. Valid JSON never contains them unescaped, but real-world
// servers emit them anyway; escaping in place keeps the rest of the
// document intact. Input without such characters is returned unchanged.
func sanitizeCtlChars(data []byte) []byte {
	var buf *bytes.Buffer
	inString := false
	escaped := false

	for i := 0; i < len(data); i++ {
		c := data[i]

		if inString && !escaped && c < 0x20 {
			if buf == nil {
				buf = bytes.NewBuffer(make([]byte, 0, len(data)+16))
				buf.Write(data[:i])
			}
			buf.WriteString(ctlEscape(c))
			continue
		}

		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		}

		if buf != nil {
			buf.WriteByte(c)
		}
	}

	if buf == nil {
		return data
	}
	return buf.Bytes()
}

func ctlEscape(c byte) string {
	switch c {
	case '\b':
		return `\b`
	case '\t':
		return `\t`
	case '\n':
		return `\n`
	case '\f':
		return `\f`
	case '\r':
		return `\r`
	default:
		return fmt.Sprintf(`\u%04x`, c)
	}
}
