package fetch

import (
	"encoding/base64"
	"strings"
)

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthBearer uses Bearer token authentication.
	AuthBearer
	// AuthBasic uses HTTP Basic authentication.
	AuthBasic
	// AuthAPIKey uses API key authentication (header or query parameter).
	AuthAPIKey
	// AuthCustom uses a custom transport-request modifier.
	AuthCustom
)

// AuthConfig configures request authentication.
type AuthConfig struct {
	// Type is the authentication method.
	Type AuthType
	// Token is the bearer token (AuthBearer).
	Token string
	// Username is the basic auth username (AuthBasic).
	Username string
	// Password is the basic auth password (AuthBasic).
	Password string
	// Key is the API key value (AuthAPIKey).
	Key string
	// In specifies where to place the API key: "header" (default) or
	// "query" (AuthAPIKey).
	In string
	// Name is the header or query parameter name (AuthAPIKey).
	// Defaults to "x-api-key".
	Name string
	// Apply is a custom function to modify the built request (AuthCustom).
	Apply func(*TransportRequest)
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

// APIKeyAuth creates an API key auth config sent via header.
func APIKeyAuth(key string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "header", Name: "x-api-key"}
}

// APIKeyAuthQuery creates an API key auth config sent via query parameter.
func APIKeyAuthQuery(key, paramName string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "query", Name: paramName}
}

// CustomAuth creates a custom auth config with a request modifier function.
func CustomAuth(fn func(*TransportRequest)) *AuthConfig {
	return &AuthConfig{Type: AuthCustom, Apply: fn}
}

// apply applies authentication to a built transport request.
func (a *AuthConfig) apply(treq *TransportRequest) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		treq.Headers["authorization"] = "Bearer " + a.Token
	case AuthBasic:
		creds := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
		treq.Headers["authorization"] = "Basic " + creds
	case AuthAPIKey:
		name := a.Name
		if name == "" {
			name = "x-api-key"
		}
		if a.In == "query" {
			treq.URL = appendQuery(treq.URL, []Field{{Key: name, Value: a.Key}})
		} else {
			treq.Headers[strings.ToLower(name)] = a.Key
		}
	case AuthCustom:
		if a.Apply != nil {
			a.Apply(treq)
		}
	}
}
