// Package backend talks to the MCP chat backend over plain HTTP JSON.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is where the backend listens unless configured otherwise.
const DefaultBaseURL = "http://localhost:5000"

// Tool is a capability exposed by the MCP server, as reported by the backend.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

type connectRequest struct {
	ScriptPath string `json:"scriptPath"`
}

type toolsResponse struct {
	Tools []Tool `json:"tools"`
}

type queryRequest struct {
	Prompt string `json:"prompt"`
}

type queryResponse struct {
	Response string `json:"response"`
}

// Client issues the /connect, /available-tools and /query calls.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	log logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.HTTPClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// WithLogger sets where request traces go.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		log:        discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect asks the backend to start and attach to the MCP server script at scriptPath.
// Any 2xx status counts as success; the response body is ignored.
func (c *Client) Connect(ctx context.Context, scriptPath string) error {
	return c.do(ctx, http.MethodPost, "/connect", connectRequest{ScriptPath: scriptPath}, nil)
}

// AvailableTools returns the tools the connected MCP server exposes.
func (c *Client) AvailableTools(ctx context.Context) ([]Tool, error) {
	var resp toolsResponse
	if err := c.do(ctx, http.MethodGet, "/available-tools", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

// Query forwards prompt to the AI and returns its textual reply.
func (c *Client) Query(ctx context.Context, prompt string) (string, error) {
	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, "/query", queryRequest{Prompt: prompt}, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "error marshaling request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "error creating request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("path", path).Warn("backend request failed")
		return errors.Wrapf(err, "error making request to %s", path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "error reading response")
	}

	c.log.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start),
	}).Debug("backend request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "error decoding %s response", path)
	}
	return nil
}
