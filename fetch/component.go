package fetch

import (
	"context"

	"github.com/kbukum/fetchkit/component"
)

// Component wraps a Client with lifecycle management for use in managed
// applications. The client is created lazily in Start().
type Component struct {
	client *Client
	config Config
	opts   []Option
	name   string
}

// compile-time assertions
var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a new fetch client component.
func NewComponent(name string, cfg Config, opts ...Option) *Component {
	return &Component{name: name, config: cfg, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string {
	if c.name == "" {
		return "fetch"
	}
	return c.name
}

// Start initializes the client.
func (c *Component) Start(_ context.Context) error {
	client, err := New(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.client = client
	return nil
}

// Stop releases the client's idle connections.
func (c *Component) Stop(_ context.Context) error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Health reports whether the client has been started.
func (c *Component) Health(_ context.Context) component.Health {
	status := component.StatusHealthy
	if c.client == nil {
		status = component.StatusUnhealthy
	}
	return component.Health{
		Name:   c.Name(),
		Status: status,
	}
}

// Describe returns the component description for startup summaries.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "http-client",
		Details: c.config.BaseURL,
	}
}

// Client returns the underlying client. Must be called after Start().
func (c *Component) Client() *Client {
	return c.client
}
