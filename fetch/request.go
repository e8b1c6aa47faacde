package fetch

import (
	"bytes"
	"io"
	"time"

	"github.com/bytedance/sonic"
)

// Mode selects how the response payload is produced.
type Mode string

const (
	// ModeBuffer reads the whole body into memory (the default).
	ModeBuffer Mode = "buffer"
	// ModeText buffers the body and exposes it as text.
	ModeText Mode = "text"
	// ModeJSON buffers the body and decodes it as JSON.
	ModeJSON Mode = "json"
	// ModeStream exposes the live body stream; the caller must drain or
	// close it.
	ModeStream Mode = "stream"
	// ModeSink pipes the body into the request's Sink writer.
	ModeSink Mode = "sink"
)

// Field is one ordered key/value pair of structured data.
type Field struct {
	Key   string
	Value string
}

// Fields is an ordered field list. Use it instead of a map when the emission
// order of query parameters, form fields, or JSON keys matters.
type Fields []Field

// MarshalJSON serializes the fields as a JSON object with keys in declared
// order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := sonic.Marshal(field.Key)
		if err != nil {
			return nil, err
		}
		v, err := sonic.Marshal(field.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Attachment is a file-like part of a multipart form. Exactly one of Path,
// Data, or Reader should be set.
type Attachment struct {
	// FieldName sets the form field name directly. When empty, the
	// positional rule applies: the first attachment is named "file" and
	// later ones "file{index}".
	FieldName string
	// Path names a file whose contents are streamed lazily when the body
	// is consumed.
	Path string
	// Data is an in-memory attachment.
	Data []byte
	// Reader is a streaming attachment. When it is an *os.File the part
	// filename is derived from its path.
	Reader io.Reader
}

// Request describes one HTTP call. It is treated as immutable: building a
// transport request never mutates caller-owned maps or slices.
type Request struct {
	// URL is the target. Relative values are resolved against the client's
	// BaseURL.
	URL string

	// Method is the HTTP method. Defaults to GET; upper-cased before use.
	Method string

	// Headers are request headers. Keys are canonicalized to lower-case;
	// an explicitly empty "user-agent" suppresses the header entirely.
	Headers map[string]string

	// Content is an opaque body: string, []byte, or io.Reader. Ignored for
	// GET/HEAD requests.
	Content any

	// Stream is a legacy alias for a reader Content, used only when
	// Content is nil.
	Stream io.Reader

	// Data is the structured body: a raw string/[]byte/io.Reader sent
	// as-is, or a map[string]string, map[string]any, url.Values, or Fields
	// whose pairs become query parameters (GET/HEAD), a JSON object (JSON
	// content-type intent), or an URL-encoded form (otherwise).
	Data any

	// Files are multipart attachments. Their presence forces POST for
	// GET/HEAD and switches the body to multipart/form-data with Data
	// fields emitted first.
	Files []Attachment

	// ContentType hints the body media type. The shorthands "json" and
	// "form" are recognized alongside full media types.
	ContentType string

	// Timeout applies to both the header-wait and body-wait phases.
	Timeout time.Duration

	// HeaderTimeout overrides the header-wait timeout only.
	HeaderTimeout time.Duration

	// ContentTimeout overrides the body-wait timeout only.
	ContentTimeout time.Duration

	// DisableRedirect forces the redirect limit to zero.
	DisableRedirect bool

	// MaxRedirects overrides the client redirect limit when positive.
	MaxRedirects int

	// Mode selects the response representation. Defaults to ModeBuffer.
	Mode Mode

	// Sink receives the body directly; setting it implies ModeSink.
	Sink io.Writer

	// Streaming forces ModeStream regardless of Mode.
	Streaming bool

	// Gzip enables accept-encoding negotiation for this request.
	Gzip bool

	// FixJSONCtlChars sanitizes raw control characters before JSON
	// decoding.
	FixJSONCtlChars bool

	// Auth overrides the client-level auth for this request.
	Auth *AuthConfig
}

// outputMode resolves the effective response mode. Streaming takes priority
// over a sink, which takes priority over the buffered modes.
func (r Request) outputMode() Mode {
	if r.Streaming || r.Mode == ModeStream {
		return ModeStream
	}
	if r.Sink != nil || r.Mode == ModeSink {
		return ModeSink
	}
	if r.Mode == "" {
		return ModeBuffer
	}
	return r.Mode
}
