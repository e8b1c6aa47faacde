package fetch

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Normalize translates a raw transport response into the representation the
// call description asked for. start is the call start time used for the
// elapsed duration. Failures carry the best-known status and headers.
func Normalize(tresp *TransportResponse, req Request, start time.Time) (*Response, error) {
	resp := &Response{
		Status:     tresp.Status,
		StatusCode: tresp.StatusCode,
		Headers:    flattenHeaders(tresp.Headers),
		Visited:    tresp.Visited,
	}
	if len(resp.Visited) == 0 {
		resp.Visited = []string{req.URL}
	}
	resp.URL = resp.Visited[len(resp.Visited)-1]
	resp.Redirected = len(resp.Visited) > 1

	encoding := resp.Headers["content-encoding"]
	compressed := encoding == "gzip" || encoding == "deflate"

	if cl := resp.Headers["content-length"]; cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			resp.Size = n
		}
	}

	var err error
	switch req.outputMode() {
	case ModeStream:
		err = normalizeStream(resp, tresp, encoding, compressed)
	case ModeSink:
		err = normalizeSink(resp, tresp, req.Sink, encoding, compressed)
	default:
		err = normalizeBuffer(resp, tresp, req, encoding, compressed)
	}
	resp.Duration = time.Since(start)

	if err != nil {
		return nil, err
	}
	return resp, nil
}

// normalizeStream hands the live body to the caller, behind a decompression
// stage when the response is compressed. Raw compressed bytes are never
// exposed.
func normalizeStream(resp *Response, tresp *TransportResponse, encoding string, compressed bool) error {
	if !compressed {
		resp.Stream = tresp.Body
		return nil
	}
	stream, err := decompressStream(tresp.Body, encoding)
	if err != nil {
		_ = tresp.Body.Close()
		return attachResponse(asUnzipError(err), resp.StatusCode, resp.Headers)
	}
	resp.Stream = stream
	return nil
}

// normalizeSink pipes the (decompressed) body into the caller's writer and
// waits for the copy to finish. The response carries no in-memory payload.
func normalizeSink(resp *Response, tresp *TransportResponse, sink io.Writer, encoding string, compressed bool) error {
	src := io.ReadCloser(tresp.Body)
	if compressed {
		stream, err := decompressStream(tresp.Body, encoding)
		if err != nil {
			_ = tresp.Body.Close()
			return attachResponse(asUnzipError(err), resp.StatusCode, resp.Headers)
		}
		src = stream
	}
	defer src.Close()

	n, err := io.Copy(sink, src)
	resp.BytesWritten = n
	if err != nil {
		return attachResponse(err, resp.StatusCode, resp.Headers)
	}
	return nil
}

// normalizeBuffer reads the whole body, decompresses it if needed, and
// decodes it per the declared output mode.
func normalizeBuffer(resp *Response, tresp *TransportResponse, req Request, encoding string, compressed bool) error {
	raw, err := io.ReadAll(tresp.Body)
	_ = tresp.Body.Close()
	if err != nil {
		return attachResponse(err, resp.StatusCode, resp.Headers)
	}

	if compressed && len(raw) > 0 {
		raw, err = decompressBytes(raw, encoding)
		if err != nil {
			return attachResponse(asUnzipError(err), resp.StatusCode, resp.Headers)
		}
	}
	resp.Body = raw

	switch req.outputMode() {
	case ModeJSON:
		data, err := parseJSON(raw, req.FixJSONCtlChars)
		if err != nil {
			return attachResponse(err, resp.StatusCode, resp.Headers)
		}
		resp.Data = data
	case ModeText, ModeBuffer:
		// Raw bytes are the value; Text() covers the text mode.
	}
	return nil
}

// decompressed couples a decompression stage with the raw stream beneath it
// so closing the payload closes both.
type decompressed struct {
	r   io.ReadCloser
	raw io.ReadCloser
}

func (d *decompressed) Read(p []byte) (int, error) {
	return d.r.Read(p)
}

func (d *decompressed) Close() error {
	err := d.r.Close()
	if rawErr := d.raw.Close(); err == nil {
		err = rawErr
	}
	return err
}

// decompressStream wraps raw in the decompression stage matching the
// content-encoding.
func decompressStream(raw io.ReadCloser, encoding string) (io.ReadCloser, error) {
	switch encoding {
	case "gzip":
		zr, err := gzip.NewReader(raw)
		if err != nil {
			return nil, err
		}
		return &decompressed{r: zr, raw: raw}, nil
	case "deflate":
		zr, err := zlib.NewReader(raw)
		if err != nil {
			return nil, err
		}
		return &decompressed{r: zr, raw: raw}, nil
	}
	return raw, nil
}

// decompressBytes synchronously decompresses a buffered body.
func decompressBytes(data []byte, encoding string) ([]byte, error) {
	var zr io.ReadCloser
	var err error
	switch encoding {
	case "gzip":
		zr, err = gzip.NewReader(bytes.NewReader(data))
	case "deflate":
		zr, err = zlib.NewReader(bytes.NewReader(data))
	default:
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// flattenHeaders converts multi-value headers into a single-value map with
// lower-case keys.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[strings.ToLower(k)] = v[0]
		}
	}
	return result
}
