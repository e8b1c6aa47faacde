package fetch

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/fetchkit/logger"
)

// Client executes calls: it builds the transport request, hands it to the
// engine, and normalizes the result. Clients are safe for concurrent use;
// calls are fully independent of each other.
type Client struct {
	engine Engine
	config Config
	log    *logger.Logger
	tracer trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithEngine replaces the default net/http engine.
func WithEngine(e Engine) Option {
	return func(c *Client) { c.engine = e }
}

// WithLogger sets the client logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client with the given defaults.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config: cfg,
		log:    logger.NewDefault("fetch"),
		tracer: otel.Tracer("github.com/kbukum/fetchkit/fetch"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.engine == nil {
		engine, err := NewNetEngine(cfg.TLS)
		if err != nil {
			return nil, err
		}
		c.engine = engine
	}

	return c, nil
}

// Do executes one call and returns the normalized response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	requestID := uuid.NewString()

	// Client-wide flags participate in both the build and normalization.
	req.Gzip = req.Gzip || c.config.Gzip
	req.FixJSONCtlChars = req.FixJSONCtlChars || c.config.FixJSONCtlChars

	treq := Build(req, c.config)
	req.URL = treq.URL

	ctx, span := c.tracer.Start(ctx, "fetch."+strings.ToLower(treq.Method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", treq.Method),
			attribute.String("url.full", treq.URL),
		))
	defer span.End()

	log := c.log.WithFields(logger.Fields(
		logger.FieldRequestID, requestID,
		logger.FieldMethod, treq.Method,
		logger.FieldURL, treq.URL,
	))
	log.Debug("request started")

	tresp, err := c.engine.Execute(ctx, treq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WithError(err).Debug("request failed")
		return nil, err
	}

	resp, err := Normalize(tresp, req, start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WithError(err).Debug("response handling failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	log.Debug("request completed", logger.Fields(
		logger.FieldStatus, resp.StatusCode,
		logger.FieldDuration, resp.Duration.Milliseconds(),
	))
	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: url})
}

// Head performs a HEAD request.
func (c *Client) Head(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodHead, URL: url})
}

// Post performs a POST request with structured data.
func (c *Client) Post(ctx context.Context, url string, data any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, URL: url, Data: data})
}

// Put performs a PUT request with structured data.
func (c *Client) Put(ctx context.Context, url string, data any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, URL: url, Data: data})
}

// Patch performs a PATCH request with structured data.
func (c *Client) Patch(ctx context.Context, url string, data any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, URL: url, Data: data})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, URL: url})
}

// Config returns the client-wide defaults.
func (c *Client) Config() Config {
	return c.config
}

// Close releases idle connections held by the default engine.
func (c *Client) Close() error {
	if e, ok := c.engine.(*NetEngine); ok {
		e.CloseIdle()
	}
	return nil
}
