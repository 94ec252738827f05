package submitx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Client posts EmailRequests to a mail relay server.
//
// The default http.Client has no timeout: a submission may stay pending
// until the server answers or ctx is cancelled. Responses are never retried
// and their HTTP status is not inspected.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for the server at baseURL, e.g. "http://localhost:8080".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Endpoint returns the absolute URL submissions are posted to.
func (c *Client) Endpoint() string {
	return c.baseURL + SendEmailPath
}

// Send posts req and decodes the server reply.
func (c *Client) Send(ctx context.Context, req EmailRequest) (*EmailResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, submitErrors.NewWithCause(ErrEncode, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, submitErrors.NewWithCause(ErrTransport, err).WithDetail("url", c.Endpoint())
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, submitErrors.NewWithCause(ErrTransport, err).WithDetail("url", c.Endpoint())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, submitErrors.NewWithCause(ErrReadBody, err).WithDetail("status_code", resp.StatusCode)
	}

	return decodeResponse(body, resp.StatusCode)
}

func decodeResponse(body []byte, statusCode int) (*EmailResponse, error) {
	if !gjson.ValidBytes(body) {
		return nil, submitErrors.New(ErrDecode).
			WithDetail("status_code", statusCode).
			WithDetail("reason", "invalid JSON")
	}

	result := gjson.ParseBytes(body)
	if !result.IsObject() {
		return nil, submitErrors.New(ErrDecode).
			WithDetail("status_code", statusCode).
			WithDetail("reason", "not an object")
	}

	return &EmailResponse{Message: result.Get("message").String()}, nil
}
