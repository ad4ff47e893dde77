package baas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/darasa/core"
)

// APIError is a non-2xx response of the BaaS.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("baas: %d %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status of err if it is an *APIError, 0 otherwise.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Client calls the BaaS REST APIs (auth, storage).
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	rest       *rest.Client
}

func NewClient(conf core.BaaSConfig) *Client {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(conf.URL, "/"),
		anonKey:    conf.AnonKey,
		serviceKey: conf.ServiceKey,
		rest:       &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Request describes a call to the BaaS. Path is relative to the BaaS URL.
type Request struct {
	Method  rest.Method
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    []byte
	// BearerToken authenticates as an end user; the service key is used when empty.
	BearerToken string
}

// Send performs req and returns its response when it is a 2xx, an *APIError otherwise.
func (c *Client) Send(ctx context.Context, req Request) (*rest.Response, error) {
	token := req.BearerToken
	if token == "" {
		token = c.serviceKey
	}
	apiKey := c.anonKey
	if apiKey == "" {
		apiKey = c.serviceKey
	}

	headers := map[string]string{
		"apikey":        apiKey,
		"Authorization": "Bearer " + token,
	}
	for k, v := range req.Headers {
		headers[k] = v
	}

	res, err := c.rest.SendWithContext(ctx, rest.Request{
		Method:      req.Method,
		BaseURL:     c.baseURL + "/" + strings.TrimLeft(req.Path, "/"),
		Headers:     headers,
		QueryParams: req.Query,
		Body:        req.Body,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "baas %s %s", req.Method, req.Path)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &APIError{StatusCode: res.StatusCode, Message: errorMessage(res.Body)}
	}
	return res, nil
}

// SendJSON is Send with body marshalled to JSON.
func (c *Client) SendJSON(ctx context.Context, req Request, body interface{}) (*rest.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "encoding request body")
	}
	if req.Headers == nil {
		req.Headers = make(map[string]string, 1)
	}
	req.Headers["Content-Type"] = "application/json"
	req.Body = data
	return c.Send(ctx, req)
}

// errorMessage extracts the message of the BaaS error payloads, eg. `{"error": "...", "message": "..."}`.
func errorMessage(body string) string {
	var payload struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		for _, m := range []string{payload.Message, payload.Msg, payload.ErrorDescription, payload.Error} {
			if m != "" {
				return m
			}
		}
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return strings.TrimSpace(body)
}
