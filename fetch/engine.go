package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TransportRequest is the engine-facing form of a call: everything the
// request builder produces and the transport needs. Built once per call,
// never reused.
type TransportRequest struct {
	Method string
	URL    string
	// Headers are canonical: every key is lower-case.
	Headers map[string]string
	Body    io.Reader
	// HeaderTimeout bounds the wait for response headers.
	HeaderTimeout time.Duration
	// ContentTimeout bounds the wait for body bytes after headers arrive.
	ContentTimeout time.Duration
	// MaxRedirects caps redirect following; 0 disables it.
	MaxRedirects int
}

// TransportResponse is the raw result of a wire exchange. Body reads fail
// with a typed timeout error once the content threshold passes; the caller
// must drain or close the body to release the underlying connection.
type TransportResponse struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       io.ReadCloser
	// Visited lists every URL visited in order, the original first.
	Visited []string
}

// Engine performs the wire exchange for a built request. Implementations
// must honor the request's timeouts and redirect limit.
type Engine interface {
	Execute(ctx context.Context, req *TransportRequest) (*TransportResponse, error)
}

// NetEngine is the default Engine, built on net/http. A single transport is
// shared across calls for connection pooling; each call gets its own
// redirect trail and timeout state.
type NetEngine struct {
	transport *http.Transport
}

// NewNetEngine creates the default engine, optionally with TLS settings.
func NewNetEngine(tlsCfg *TLSConfig) (*NetEngine, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsCfg != nil {
		built, err := tlsCfg.Build()
		if err != nil {
			return nil, err
		}
		if built != nil {
			transport.TLSClientConfig = built
		}
	}
	return &NetEngine{transport: transport}, nil
}

// CloseIdle releases idle pooled connections.
func (e *NetEngine) CloseIdle() {
	e.transport.CloseIdleConnections()
}

// Phase markers used as cancellation causes so failures can be mapped back
// to the threshold that was exceeded.
var (
	errHeaderTimeout  = errors.New("response header timeout")
	errContentTimeout = errors.New("response content timeout")
)

// Execute sends the request. Header-wait and content-wait are enforced with
// one cancellable context: a header timer cancels it before headers arrive,
// a content timer after. The returned body keeps the context alive until it
// is drained or closed.
func (e *NetEngine) Execute(ctx context.Context, treq *TransportRequest) (*TransportResponse, error) {
	reqCtx, cancel := context.WithCancelCause(ctx)

	httpReq, err := http.NewRequestWithContext(reqCtx, treq.Method, treq.URL, treq.Body)
	if err != nil {
		cancel(nil)
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	for k, v := range treq.Headers {
		httpReq.Header.Set(k, v)
	}
	if _, ok := treq.Headers["user-agent"]; !ok {
		// An empty value tells net/http to send no User-Agent header at
		// all instead of its own default.
		httpReq.Header.Set("User-Agent", "")
	}

	visited := []string{treq.URL}
	client := &http.Client{
		Transport: e.transport,
		CheckRedirect: func(r *http.Request, via []*http.Request) error {
			if len(via) > treq.MaxRedirects {
				return http.ErrUseLastResponse
			}
			visited = append(visited, r.URL.String())
			return nil
		},
	}

	headerTimer := time.AfterFunc(treq.HeaderTimeout, func() {
		cancel(errHeaderTimeout)
	})

	resp, err := client.Do(httpReq)
	headerTimer.Stop()
	if err != nil {
		cancel(nil)
		if context.Cause(reqCtx) == errHeaderTimeout {
			return nil, NewTimeoutError(treq.HeaderTimeout, err)
		}
		return nil, NewTransportError(err)
	}

	contentTimer := time.AfterFunc(treq.ContentTimeout, func() {
		cancel(errContentTimeout)
	})

	return &TransportResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Header,
		Visited:    visited,
		Body: &deadlineBody{
			body:             resp.Body,
			ctx:              reqCtx,
			cancel:           cancel,
			timer:            contentTimer,
			headerThreshold:  treq.HeaderTimeout,
			contentThreshold: treq.ContentTimeout,
		},
	}, nil
}

// deadlineBody converts a phase-timeout cancellation into a typed timeout
// error and releases the call context once the body is finished. The header
// timer can fire in the window between headers arriving and its Stop call,
// so both phase causes are mapped here.
type deadlineBody struct {
	body             io.ReadCloser
	ctx              context.Context
	cancel           context.CancelCauseFunc
	timer            *time.Timer
	headerThreshold  time.Duration
	contentThreshold time.Duration
}

func (b *deadlineBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	if err == io.EOF {
		b.release()
		return n, err
	}
	if err != nil {
		switch context.Cause(b.ctx) {
		case errContentTimeout:
			return n, NewTimeoutError(b.contentThreshold, err)
		case errHeaderTimeout:
			return n, NewTimeoutError(b.headerThreshold, err)
		}
	}
	return n, err
}

func (b *deadlineBody) Close() error {
	b.release()
	return b.body.Close()
}

func (b *deadlineBody) release() {
	b.timer.Stop()
	b.cancel(nil)
}
