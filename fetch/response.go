package fetch

import (
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Response is the normalized result of a call.
type Response struct {
	// Status is the full status line, e.g. "200 OK".
	Status string
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the final response headers with lower-case keys.
	Headers map[string]string
	// Body is the decompressed raw payload (buffered modes only).
	Body []byte
	// Data is the decoded JSON value (ModeJSON). Nil when the body was
	// empty.
	Data any
	// Stream is the live payload stream (ModeStream), decompressed when
	// the response was compressed. The caller owns it and must drain or
	// close it.
	Stream io.ReadCloser
	// URL is the final URL after redirects.
	URL string
	// Redirected reports whether more than one URL was visited.
	Redirected bool
	// Visited lists every URL visited in order, the original first.
	Visited []string
	// Size is the declared content-length, 0 when unknown.
	Size int64
	// BytesWritten is the number of bytes piped into the sink (ModeSink).
	BytesWritten int64
	// Duration is the elapsed time from call start to normalization end.
	Duration time.Duration
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// Header returns a response header by case-insensitive name.
func (r *Response) Header(key string) string {
	return r.Headers[strings.ToLower(key)]
}

// Text returns the buffered body as text.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the buffered body into v.
func (r *Response) JSON(v any) error {
	if err := sonic.Unmarshal(r.Body, v); err != nil {
		return NewParseError(err)
	}
	return nil
}

// Close releases the stream payload, if any. Safe to call in every mode.
func (r *Response) Close() error {
	if r.Stream != nil {
		return r.Stream.Close()
	}
	return nil
}
