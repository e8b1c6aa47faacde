package fetch

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/kbukum/fetchkit/testutil"
)

func TestAuth_Bearer(t *testing.T) {
	treq := Build(Request{URL: "http://example.com", Auth: BearerAuth("tok123")}, Config{})
	if got := treq.Headers["authorization"]; got != "Bearer tok123" {
		t.Errorf("expected bearer header, got %q", got)
	}
}

func TestAuth_Basic(t *testing.T) {
	treq := Build(Request{URL: "http://example.com", Auth: BasicAuth("alice", "s3cret")}, Config{})
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:s3cret"))
	if got := treq.Headers["authorization"]; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestAuth_APIKeyHeader(t *testing.T) {
	treq := Build(Request{URL: "http://example.com", Auth: APIKeyAuth("key123")}, Config{})
	if got := treq.Headers["x-api-key"]; got != "key123" {
		t.Errorf("expected x-api-key header, got %q", got)
	}
}

func TestAuth_APIKeyHeaderNameLowercased(t *testing.T) {
	auth := &AuthConfig{Type: AuthAPIKey, Key: "k", Name: "X-Service-Token"}
	treq := Build(Request{URL: "http://example.com", Auth: auth}, Config{})
	if got := treq.Headers["x-service-token"]; got != "k" {
		t.Errorf("expected lower-cased header name, got headers %v", treq.Headers)
	}
}

func TestAuth_APIKeyQuery(t *testing.T) {
	auth := APIKeyAuthQuery("key123", "api_key")
	treq := Build(Request{URL: "http://example.com/v1"}, Config{Auth: auth})
	if treq.URL != "http://example.com/v1?api_key=key123" {
		t.Errorf("expected key in query, got %q", treq.URL)
	}
}

func TestAuth_Custom(t *testing.T) {
	auth := CustomAuth(func(treq *TransportRequest) {
		treq.Headers["x-signature"] = "signed:" + treq.Method
	})
	treq := Build(Request{URL: "http://example.com", Method: "POST", Auth: auth}, Config{})
	if got := treq.Headers["x-signature"]; got != "signed:POST" {
		t.Errorf("expected custom header, got %q", got)
	}
}

func TestAuth_RequestOverridesClient(t *testing.T) {
	cfg := Config{Auth: BearerAuth("client-token")}
	treq := Build(Request{URL: "http://example.com", Auth: BearerAuth("request-token")}, cfg)
	if got := treq.Headers["authorization"]; got != "Bearer request-token" {
		t.Errorf("expected request auth to win, got %q", got)
	}

	treq = Build(Request{URL: "http://example.com"}, cfg)
	if got := treq.Headers["authorization"]; got != "Bearer client-token" {
		t.Errorf("expected client auth default, got %q", got)
	}
}

func TestAuth_OverWire(t *testing.T) {
	srv := testutil.EchoServer(t)
	c := newTestClient(t, Config{Auth: BearerAuth("wire-token")})

	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	echo := echoOf(t, resp)
	if !strings.HasPrefix(echo.Headers["authorization"], "Bearer wire-token") {
		t.Errorf("expected bearer on the wire, got %q", echo.Headers["authorization"])
	}
}

func TestAuth_NoneLeavesRequestUntouched(t *testing.T) {
	treq := Build(Request{URL: "http://example.com", Auth: &AuthConfig{}}, Config{})
	if _, ok := treq.Headers["authorization"]; ok {
		t.Error("expected no authorization header")
	}
}
