package fetch

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestBuild_DefaultMethod(t *testing.T) {
	treq := Build(Request{URL: "http://example.com"}, Config{})
	if treq.Method != http.MethodGet {
		t.Errorf("expected GET, got %s", treq.Method)
	}
}

func TestBuild_MethodUppercased(t *testing.T) {
	treq := Build(Request{URL: "http://example.com", Method: "post"}, Config{})
	if treq.Method != http.MethodPost {
		t.Errorf("expected POST, got %s", treq.Method)
	}
}

func TestBuild_FilesForcePOST(t *testing.T) {
	req := Request{
		URL:    "http://example.com",
		Method: http.MethodGet,
		Files:  []Attachment{{Data: []byte("x")}},
	}
	treq := Build(req, Config{})
	if treq.Method != http.MethodPost {
		t.Errorf("expected POST with attachments, got %s", treq.Method)
	}
	if !strings.HasPrefix(treq.Headers["content-type"], "multipart/form-data") {
		t.Errorf("expected multipart content-type, got %q", treq.Headers["content-type"])
	}
}

func TestBuild_HeadersLowercased(t *testing.T) {
	req := Request{
		URL:     "http://example.com",
		Headers: map[string]string{"X-Custom-One": "a", "CONTENT-LANGUAGE": "en"},
	}
	treq := Build(req, Config{})
	if treq.Headers["x-custom-one"] != "a" {
		t.Errorf("expected lower-cased key, got headers %v", treq.Headers)
	}
	if treq.Headers["content-language"] != "en" {
		t.Errorf("expected lower-cased key, got headers %v", treq.Headers)
	}
	for k := range treq.Headers {
		if k != strings.ToLower(k) {
			t.Errorf("header key %q is not lower-case", k)
		}
	}
}

func TestBuild_RequestHeadersOverrideDefaults(t *testing.T) {
	cfg := Config{Headers: map[string]string{"X-Tenant": "default", "X-Keep": "yes"}}
	req := Request{
		URL:     "http://example.com",
		Headers: map[string]string{"X-TENANT": "override"},
	}
	treq := Build(req, cfg)
	if treq.Headers["x-tenant"] != "override" {
		t.Errorf("expected request header to win, got %q", treq.Headers["x-tenant"])
	}
	if treq.Headers["x-keep"] != "yes" {
		t.Errorf("expected default header kept, got %q", treq.Headers["x-keep"])
	}
}

func TestBuild_UserAgentDefault(t *testing.T) {
	treq := Build(Request{URL: "http://example.com"}, Config{})
	if treq.Headers["user-agent"] == "" {
		t.Error("expected a default user-agent")
	}
}

func TestBuild_UserAgentCustom(t *testing.T) {
	treq := Build(Request{URL: "http://example.com"}, Config{UserAgent: "my-app/2.0"})
	if treq.Headers["user-agent"] != "my-app/2.0" {
		t.Errorf("expected my-app/2.0, got %q", treq.Headers["user-agent"])
	}
}

func TestBuild_UserAgentSuppressed(t *testing.T) {
	req := Request{
		URL:     "http://example.com",
		Headers: map[string]string{"User-Agent": ""},
	}
	treq := Build(req, Config{UserAgent: "my-app/2.0"})
	if _, ok := treq.Headers["user-agent"]; ok {
		t.Errorf("expected no user-agent header, got %q", treq.Headers["user-agent"])
	}
}

func TestBuild_AcceptForJSONMode(t *testing.T) {
	treq := Build(Request{URL: "http://example.com", Mode: ModeJSON}, Config{})
	if treq.Headers["accept"] != "application/json" {
		t.Errorf("expected accept application/json, got %q", treq.Headers["accept"])
	}

	req := Request{
		URL:     "http://example.com",
		Mode:    ModeJSON,
		Headers: map[string]string{"Accept": "text/html"},
	}
	treq = Build(req, Config{})
	if treq.Headers["accept"] != "text/html" {
		t.Errorf("expected explicit accept kept, got %q", treq.Headers["accept"])
	}
}

func TestBuild_AcceptEncodingForGzip(t *testing.T) {
	treq := Build(Request{URL: "http://example.com", Gzip: true}, Config{})
	if treq.Headers["accept-encoding"] != "gzip, deflate" {
		t.Errorf("expected gzip, deflate, got %q", treq.Headers["accept-encoding"])
	}

	treq = Build(Request{URL: "http://example.com"}, Config{Gzip: true})
	if treq.Headers["accept-encoding"] != "gzip, deflate" {
		t.Errorf("expected client-wide gzip to apply, got %q", treq.Headers["accept-encoding"])
	}

	treq = Build(Request{URL: "http://example.com"}, Config{})
	if _, ok := treq.Headers["accept-encoding"]; ok {
		t.Error("expected no accept-encoding without gzip")
	}
}

func TestBuild_AcceptEncodingExplicitWins(t *testing.T) {
	req := Request{
		URL:     "http://example.com",
		Gzip:    true,
		Headers: map[string]string{"Accept-Encoding": "identity"},
	}
	treq := Build(req, Config{Gzip: true})
	if got := treq.Headers["accept-encoding"]; got != "identity" {
		t.Errorf("expected caller accept-encoding kept, got %q", got)
	}
}

func TestBuild_TimeoutDefaults(t *testing.T) {
	treq := Build(Request{URL: "http://example.com"}, Config{})
	if treq.HeaderTimeout != DefaultHeaderTimeout {
		t.Errorf("expected %s, got %s", DefaultHeaderTimeout, treq.HeaderTimeout)
	}
	if treq.ContentTimeout != DefaultContentTimeout {
		t.Errorf("expected %s, got %s", DefaultContentTimeout, treq.ContentTimeout)
	}
}

func TestBuild_TimeoutAppliesToBothPhases(t *testing.T) {
	treq := Build(Request{URL: "http://example.com", Timeout: 2 * time.Second}, Config{})
	if treq.HeaderTimeout != 2*time.Second || treq.ContentTimeout != 2*time.Second {
		t.Errorf("expected 2s/2s, got %s/%s", treq.HeaderTimeout, treq.ContentTimeout)
	}
}

func TestBuild_PerPhaseTimeoutOverrides(t *testing.T) {
	req := Request{
		URL:           "http://example.com",
		Timeout:       2 * time.Second,
		HeaderTimeout: 500 * time.Millisecond,
	}
	treq := Build(req, Config{})
	if treq.HeaderTimeout != 500*time.Millisecond {
		t.Errorf("expected 500ms header timeout, got %s", treq.HeaderTimeout)
	}
	if treq.ContentTimeout != 2*time.Second {
		t.Errorf("expected 2s content timeout, got %s", treq.ContentTimeout)
	}
}

func TestBuild_RedirectLimits(t *testing.T) {
	treq := Build(Request{URL: "http://example.com"}, Config{})
	if treq.MaxRedirects != DefaultMaxRedirects {
		t.Errorf("expected %d, got %d", DefaultMaxRedirects, treq.MaxRedirects)
	}

	treq = Build(Request{URL: "http://example.com", MaxRedirects: 3}, Config{})
	if treq.MaxRedirects != 3 {
		t.Errorf("expected 3, got %d", treq.MaxRedirects)
	}

	treq = Build(Request{URL: "http://example.com", DisableRedirect: true, MaxRedirects: 3}, Config{})
	if treq.MaxRedirects != 0 {
		t.Errorf("expected 0 with DisableRedirect, got %d", treq.MaxRedirects)
	}

	treq = Build(Request{URL: "http://example.com"}, Config{MaxRedirects: -1})
	if treq.MaxRedirects != 0 {
		t.Errorf("expected 0 with negative config, got %d", treq.MaxRedirects)
	}
}

func TestBuild_BaseURLResolution(t *testing.T) {
	cfg := Config{BaseURL: "http://api.example.com/"}

	treq := Build(Request{URL: "/users"}, cfg)
	if treq.URL != "http://api.example.com/users" {
		t.Errorf("expected joined URL, got %q", treq.URL)
	}

	treq = Build(Request{URL: "http://other.example.com/x"}, cfg)
	if treq.URL != "http://other.example.com/x" {
		t.Errorf("expected absolute URL kept, got %q", treq.URL)
	}
}

func TestBuild_GETDataBecomesQuery(t *testing.T) {
	req := Request{
		URL:  "http://example.com/search",
		Data: Fields{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}},
	}
	treq := Build(req, Config{})
	if treq.URL != "http://example.com/search?b=2&a=1" {
		t.Errorf("expected declared order preserved, got %q", treq.URL)
	}
	if treq.Body != nil {
		t.Error("expected no body for GET with structured data")
	}
}

func TestBuild_GETQueryAppendsToExisting(t *testing.T) {
	req := Request{
		URL:  "http://example.com/search?q=x",
		Data: map[string]string{"b": "2", "a": "1"},
	}
	treq := Build(req, Config{})
	if treq.URL != "http://example.com/search?q=x&a=1&b=2" {
		t.Errorf("expected sorted keys appended with &, got %q", treq.URL)
	}
}

func TestBuild_GETQueryEscapes(t *testing.T) {
	req := Request{
		URL:  "http://example.com/search",
		Data: Fields{{Key: "q", Value: "a b&c"}},
	}
	treq := Build(req, Config{})
	if treq.URL != "http://example.com/search?q=a+b%26c" {
		t.Errorf("expected escaped query, got %q", treq.URL)
	}
}

func TestBuild_POSTDataBecomesForm(t *testing.T) {
	req := Request{
		URL:    "http://example.com/posts",
		Method: http.MethodPost,
		Data:   map[string]string{"title": "hi", "body": "text"},
	}
	treq := Build(req, Config{})
	if got := treq.Headers["content-type"]; got != "application/x-www-form-urlencoded;charset=UTF-8" {
		t.Errorf("expected form content-type, got %q", got)
	}
	body := readAllString(t, treq.Body)
	if body != "body=text&title=hi" {
		t.Errorf("expected sorted form encoding, got %q", body)
	}
}

func TestBuild_POSTJSONIntentViaHint(t *testing.T) {
	req := Request{
		URL:         "http://example.com/posts",
		Method:      http.MethodPost,
		Data:        map[string]any{"a": 1},
		ContentType: "json",
	}
	treq := Build(req, Config{})
	if got := treq.Headers["content-type"]; got != "application/json" {
		t.Errorf("expected application/json, got %q", got)
	}
	body := readAllString(t, treq.Body)
	if body != `{"a":1}` {
		t.Errorf("expected JSON body, got %q", body)
	}
}

func TestBuild_POSTJSONIntentViaHeader(t *testing.T) {
	req := Request{
		URL:     "http://example.com/posts",
		Method:  http.MethodPost,
		Data:    map[string]string{"a": "1"},
		Headers: map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
	treq := Build(req, Config{})
	body := readAllString(t, treq.Body)
	if body != `{"a":"1"}` {
		t.Errorf("expected JSON body via header intent, got %q", body)
	}
}

func TestBuild_OrderedFieldsJSON(t *testing.T) {
	req := Request{
		URL:         "http://example.com/posts",
		Method:      http.MethodPost,
		Data:        Fields{{Key: "z", Value: "1"}, {Key: "a", Value: "2"}},
		ContentType: "json",
	}
	treq := Build(req, Config{})
	body := readAllString(t, treq.Body)
	if body != `{"z":"1","a":"2"}` {
		t.Errorf("expected declared key order, got %q", body)
	}
}

func TestBuild_URLValuesData(t *testing.T) {
	req := Request{
		URL:    "http://example.com",
		Method: http.MethodPost,
		Data:   url.Values{"tag": {"x", "y"}},
	}
	treq := Build(req, Config{})
	body := readAllString(t, treq.Body)
	if body != "tag=x&tag=y" {
		t.Errorf("expected repeated field, got %q", body)
	}
}

func TestBuild_RawStringDataSentVerbatim(t *testing.T) {
	req := Request{
		URL:    "http://example.com",
		Method: http.MethodPost,
		Data:   "raw payload",
	}
	treq := Build(req, Config{})
	body := readAllString(t, treq.Body)
	if body != "raw payload" {
		t.Errorf("expected verbatim body, got %q", body)
	}
	if _, ok := treq.Headers["content-type"]; ok {
		t.Errorf("expected no content-type for raw data, got %q", treq.Headers["content-type"])
	}
}

func TestBuild_RawDataIgnoredOnGET(t *testing.T) {
	treq := Build(Request{URL: "http://example.com", Data: "raw"}, Config{})
	if treq.Body != nil {
		t.Error("expected raw data dropped for GET")
	}
	if treq.URL != "http://example.com" {
		t.Errorf("expected URL untouched, got %q", treq.URL)
	}
}

func TestBuild_ContentDroppedOnGETAndHEAD(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead} {
		treq := Build(Request{URL: "http://example.com", Method: method, Content: "ignored"}, Config{})
		if treq.Body != nil {
			t.Errorf("%s: expected opaque content dropped", method)
		}
	}
}

func TestBuild_ContentString(t *testing.T) {
	req := Request{
		URL:     "http://example.com",
		Method:  http.MethodPost,
		Content: "hello",
	}
	treq := Build(req, Config{})
	if got := treq.Headers["content-type"]; got != "text/plain;charset=UTF-8" {
		t.Errorf("expected text/plain default for string content, got %q", got)
	}
	if body := readAllString(t, treq.Body); body != "hello" {
		t.Errorf("expected hello, got %q", body)
	}
}

func TestBuild_ContentBytesNoDefaultContentType(t *testing.T) {
	req := Request{
		URL:     "http://example.com",
		Method:  http.MethodPost,
		Content: []byte{0x01, 0x02},
	}
	treq := Build(req, Config{})
	if _, ok := treq.Headers["content-type"]; ok {
		t.Errorf("expected no content-type for byte content, got %q", treq.Headers["content-type"])
	}
}

func TestBuild_ContentTypeHintWins(t *testing.T) {
	req := Request{
		URL:         "http://example.com",
		Method:      http.MethodPost,
		Content:     "a=1",
		ContentType: "form",
	}
	treq := Build(req, Config{})
	if got := treq.Headers["content-type"]; got != "application/x-www-form-urlencoded;charset=UTF-8" {
		t.Errorf("expected form shorthand expanded, got %q", got)
	}
}

func TestBuild_StreamAliasUsedWhenContentNil(t *testing.T) {
	req := Request{
		URL:    "http://example.com",
		Method: http.MethodPost,
		Stream: strings.NewReader("streamed"),
	}
	treq := Build(req, Config{})
	if body := readAllString(t, treq.Body); body != "streamed" {
		t.Errorf("expected streamed, got %q", body)
	}
}

func TestBuild_ContentWinsOverData(t *testing.T) {
	req := Request{
		URL:     "http://example.com",
		Method:  http.MethodPost,
		Content: "opaque",
		Data:    map[string]string{"a": "1"},
	}
	treq := Build(req, Config{})
	if body := readAllString(t, treq.Body); body != "opaque" {
		t.Errorf("expected opaque content to win, got %q", body)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	req := Request{
		URL:    "http://example.com",
		Method: http.MethodPost,
		Data:   map[string]string{"b": "2", "a": "1", "c": "3"},
		Headers: map[string]string{
			"X-One": "1",
			"x-one": "dup",
		},
	}
	cfg := Config{UserAgent: "test/1"}

	first := Build(req, cfg)
	second := Build(req, cfg)

	if first.URL != second.URL {
		t.Errorf("URL differs across builds: %q vs %q", first.URL, second.URL)
	}
	if len(first.Headers) != len(second.Headers) {
		t.Fatalf("header count differs: %v vs %v", first.Headers, second.Headers)
	}
	for k, v := range first.Headers {
		if second.Headers[k] != v {
			t.Errorf("header %q differs: %q vs %q", k, v, second.Headers[k])
		}
	}
	if readAllString(t, first.Body) != readAllString(t, second.Body) {
		t.Error("body differs across builds")
	}
}

func TestBuild_DoesNotMutateRequest(t *testing.T) {
	headers := map[string]string{"X-One": "1"}
	req := Request{
		URL:     "http://example.com",
		Headers: headers,
		Data:    map[string]string{"a": "1"},
	}
	Build(req, Config{})
	if len(headers) != 1 || headers["X-One"] != "1" {
		t.Errorf("caller headers mutated: %v", headers)
	}
}

func TestBuild_EncodeFailureDeferredToBody(t *testing.T) {
	req := Request{
		URL:         "http://example.com",
		Method:      http.MethodPost,
		Data:        map[string]any{"fn": func() {}},
		ContentType: "json",
	}
	treq := Build(req, Config{})
	if treq == nil {
		t.Fatal("expected a transport request despite encode failure")
	}
	if _, err := io.ReadAll(treq.Body); err == nil {
		t.Error("expected body read to surface the encode failure")
	}
}

func readAllString(t *testing.T, r io.Reader) string {
	t.Helper()
	if r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}
