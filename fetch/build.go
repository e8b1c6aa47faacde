package fetch

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Build translates a call description plus client defaults into a transport
// request. Precedence is defaults < per-call values < structural
// requirements (attachments force POST for GET/HEAD). Build itself never
// fails: malformed inputs are left for the transport layer to reject.
func Build(req Request, cfg Config) *TransportRequest {
	cfg.ApplyDefaults()

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	if len(req.Files) > 0 && (method == http.MethodGet || method == http.MethodHead) {
		method = http.MethodPost
	}

	headerTimeout, contentTimeout := resolveTimeouts(req, cfg)

	treq := &TransportRequest{
		Method:         method,
		URL:            resolveURL(req.URL, cfg.BaseURL),
		Headers:        canonicalHeaders(req, cfg),
		HeaderTimeout:  headerTimeout,
		ContentTimeout: contentTimeout,
		MaxRedirects:   resolveRedirects(req, cfg),
	}

	resolveBody(treq, req, method)

	auth := cfg.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(treq)

	return treq
}

// canonicalHeaders merges client defaults and request headers into a fresh
// map with lower-cased keys, then applies the user-agent, accept, and
// accept-encoding policies.
func canonicalHeaders(req Request, cfg Config) map[string]string {
	headers := make(map[string]string, len(cfg.Headers)+len(req.Headers)+3)
	lowerInto(headers, cfg.Headers)
	lowerInto(headers, req.Headers)

	if ua, explicit := headers["user-agent"]; explicit && ua == "" {
		// An explicitly empty user-agent means "send none at all".
		delete(headers, "user-agent")
	} else if !explicit {
		headers["user-agent"] = cfg.UserAgent
	}

	if req.outputMode() == ModeJSON {
		if _, ok := headers["accept"]; !ok {
			headers["accept"] = "application/json"
		}
	}

	if req.Gzip || cfg.Gzip {
		setIfAbsent(headers, "accept-encoding", "gzip, deflate")
	}

	return headers
}

// lowerInto copies src into dst with lower-cased keys. Source keys are
// visited in sorted order so case collisions resolve deterministically
// (last write wins).
func lowerInto(dst, src map[string]string) {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		dst[strings.ToLower(k)] = src[k]
	}
}

// resolveTimeouts applies the single-value Timeout to both phases, then
// lets the per-phase values override individually.
func resolveTimeouts(req Request, cfg Config) (header, content time.Duration) {
	header, content = cfg.HeaderTimeout, cfg.ContentTimeout
	if req.Timeout > 0 {
		header, content = req.Timeout, req.Timeout
	}
	if req.HeaderTimeout > 0 {
		header = req.HeaderTimeout
	}
	if req.ContentTimeout > 0 {
		content = req.ContentTimeout
	}
	return header, content
}

func resolveRedirects(req Request, cfg Config) int {
	max := cfg.MaxRedirects
	if max < 0 {
		max = 0
	}
	if req.MaxRedirects > 0 {
		max = req.MaxRedirects
	}
	if req.DisableRedirect {
		max = 0
	}
	return max
}

// resolveURL prepends the base URL to relative targets, matching the
// client-default precedence: an absolute request URL always wins.
func resolveURL(target, baseURL string) string {
	if baseURL == "" || strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(target, "/")
}

// resolveBody fills in the transport body following the fixed precedence:
// attachments > opaque content > structured data.
func resolveBody(treq *TransportRequest, req Request, method string) {
	bodyless := method == http.MethodGet || method == http.MethodHead

	if len(req.Files) > 0 {
		body, contentType := multipartBody(dataFields(req.Data), req.Files)
		treq.Body = body
		treq.Headers["content-type"] = contentType
		return
	}

	content := req.Content
	if content == nil && req.Stream != nil {
		content = req.Stream
	}
	if content != nil {
		// Opaque content on GET/HEAD is silently dropped, not rejected.
		if bodyless {
			return
		}
		reader, textual := rawBody(content)
		treq.Body = reader
		if ct := expandContentType(req.ContentType); ct != "" {
			treq.Headers["content-type"] = ct
		} else if textual {
			setIfAbsent(treq.Headers, "content-type", "text/plain;charset=UTF-8")
		}
		return
	}

	if req.Data == nil {
		return
	}

	if reader, _ := rawBody(req.Data); reader != nil {
		// Raw data is sent verbatim with no content-type of its own, and
		// never becomes a GET/HEAD query string.
		if !bodyless {
			treq.Body = reader
		}
		return
	}

	fields := dataFields(req.Data)
	if bodyless {
		treq.URL = appendQuery(treq.URL, fields)
		return
	}

	if jsonIntent(req.ContentType, treq.Headers["content-type"]) {
		raw, err := sonic.Marshal(req.Data)
		if err != nil {
			treq.Body = &errReader{err: fmt.Errorf("fetch: encode body: %w", err)}
			return
		}
		treq.Body = bytes.NewReader(raw)
		setIfAbsent(treq.Headers, "content-type", "application/json")
		return
	}

	treq.Body = strings.NewReader(encodeForm(fields))
	setIfAbsent(treq.Headers, "content-type", "application/x-www-form-urlencoded;charset=UTF-8")
}

// rawBody converts an opaque body value into a reader. The second result
// reports whether the value was textual.
func rawBody(v any) (io.Reader, bool) {
	switch b := v.(type) {
	case string:
		return strings.NewReader(b), true
	case []byte:
		return bytes.NewReader(b), false
	case io.Reader:
		return b, false
	}
	return nil, false
}

// dataFields flattens structured data into an ordered field list. Fields
// keep their declared order; map keys are sorted so repeated builds emit
// identical requests.
func dataFields(data any) []Field {
	switch d := data.(type) {
	case Fields:
		return append(Fields(nil), d...)
	case []Field:
		return append([]Field(nil), d...)
	case map[string]string:
		keys := sortedKeys(d)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, Field{Key: k, Value: d[k]})
		}
		return fields
	case map[string]any:
		keys := sortedKeys(d)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, Field{Key: k, Value: fmt.Sprintf("%v", d[k])})
		}
		return fields
	case url.Values:
		keys := sortedKeys(d)
		var fields []Field
		for _, k := range keys {
			for _, v := range d[k] {
				fields = append(fields, Field{Key: k, Value: v})
			}
		}
		return fields
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// appendQuery appends fields to the URL's query string in order, keeping
// whatever query the URL already carries.
func appendQuery(rawURL string, fields []Field) string {
	if len(fields) == 0 {
		return rawURL
	}
	var b strings.Builder
	b.WriteString(rawURL)
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	for _, f := range fields {
		b.WriteString(sep)
		b.WriteString(url.QueryEscape(f.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.Value))
		sep = "&"
	}
	return b.String()
}

// encodeForm serializes fields as application/x-www-form-urlencoded,
// preserving field order.
func encodeForm(fields []Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(f.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.Value))
	}
	return b.String()
}

// jsonIntent reports whether the hint or an already-set content-type header
// asks for JSON serialization.
func jsonIntent(hint, headerContentType string) bool {
	return strings.HasPrefix(expandContentType(hint), "application/json") ||
		strings.HasPrefix(headerContentType, "application/json")
}

// expandContentType resolves the "json" and "form" shorthands; anything
// else is treated as a full media type.
func expandContentType(hint string) string {
	switch strings.ToLower(hint) {
	case "":
		return ""
	case "json":
		return "application/json"
	case "form", "urlencoded":
		return "application/x-www-form-urlencoded;charset=UTF-8"
	case "text":
		return "text/plain;charset=UTF-8"
	default:
		return hint
	}
}

func setIfAbsent(headers map[string]string, key, value string) {
	if _, ok := headers[key]; !ok {
		headers[key] = value
	}
}

// errReader defers a build-time encoding failure to the transport layer,
// which is where all body failures surface.
type errReader struct {
	err error
}

func (r *errReader) Read([]byte) (int, error) {
	return 0, r.err
}
