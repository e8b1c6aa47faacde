package rest

import (
	"context"
	"net/http"

	"github.com/kbukum/fetchkit/fetch"
)

// Response wraps a normalized response with a decoded body of type T.
type Response[T any] struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Data is the decoded response body.
	Data T
}

// RequestOption configures a single request.
type RequestOption func(*fetch.Request)

// WithHeader adds a header to the request.
func WithHeader(key, value string) RequestOption {
	return func(r *fetch.Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithAuth overrides authentication for the request.
func WithAuth(auth *fetch.AuthConfig) RequestOption {
	return func(r *fetch.Request) {
		r.Auth = auth
	}
}

// Get performs a GET request and decodes the JSON response into type T.
func Get[T any](c *fetch.Client, ctx context.Context, url string, opts ...RequestOption) (*Response[T], error) {
	return doTyped[T](c, ctx, http.MethodGet, url, nil, opts...)
}

// Post performs a POST request with a JSON body and decodes the response
// into type T.
func Post[T any](c *fetch.Client, ctx context.Context, url string, body any, opts ...RequestOption) (*Response[T], error) {
	return doTyped[T](c, ctx, http.MethodPost, url, body, opts...)
}

// Put performs a PUT request with a JSON body and decodes the response into
// type T.
func Put[T any](c *fetch.Client, ctx context.Context, url string, body any, opts ...RequestOption) (*Response[T], error) {
	return doTyped[T](c, ctx, http.MethodPut, url, body, opts...)
}

// Patch performs a PATCH request with a JSON body and decodes the response
// into type T.
func Patch[T any](c *fetch.Client, ctx context.Context, url string, body any, opts ...RequestOption) (*Response[T], error) {
	return doTyped[T](c, ctx, http.MethodPatch, url, body, opts...)
}

// Delete performs a DELETE request and decodes the JSON response into type T.
func Delete[T any](c *fetch.Client, ctx context.Context, url string, opts ...RequestOption) (*Response[T], error) {
	return doTyped[T](c, ctx, http.MethodDelete, url, nil, opts...)
}

// doTyped executes a buffered request with JSON intent and decodes the body.
func doTyped[T any](c *fetch.Client, ctx context.Context, method, url string, body any, opts ...RequestOption) (*Response[T], error) {
	req := fetch.Request{
		Method: method,
		URL:    url,
		Data:   body,
	}
	if body != nil {
		req.ContentType = "json"
	}
	for _, opt := range opts {
		opt(&req)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &Response[T]{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
	}
	if len(resp.Body) > 0 {
		if err := resp.JSON(&out.Data); err != nil {
			return nil, err
		}
	}
	return out, nil
}
