// Package webclient wraps an *http.Client with a mutable default-header bag,
// outbound rate limiting, and per-verb shortcuts returning a uniform
// Response[T] envelope (spec §4.6). It also exposes WSClient, a reconnecting
// WebSocket client for the same family (ws.go).
package webclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vitaliisemenov/corefx/ferr"
	"github.com/vitaliisemenov/corefx/fwconfig"
)

// Response is the uniform shape every call returns: the body is present on
// typed responses and absent (zero value) on *ToVoid variants (spec §4.6
// "TardisHttpResponse<T>{code, headers, body}").
type Response[T any] struct {
	Code   int
	Header http.Header
	Body   T
}

// Client wraps *http.Client plus a mutable default-header bag and an
// outbound rate limiter (grounded on the teacher's PagerDuty Events client,
// internal/infrastructure/publishing/pagerduty_client.go, which pairs
// golang.org/x/time/rate with *http.Client the same way).
type Client struct {
	http    *http.Client
	limiter *rate.Limiter

	mu      sync.RWMutex
	headers map[string]string
}

// New builds a Client from cfg.
func New(cfg fwconfig.WebClientModuleConfig) *Client {
	transport := &http.Transport{}
	httpClient := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: transport,
	}

	var limiter *rate.Limiter
	if cfg.RateLimitPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), int(cfg.RateLimitPerSec)+1)
	}

	headers := make(map[string]string, len(cfg.DefaultHeaders))
	for k, v := range cfg.DefaultHeaders {
		headers[k] = v
	}

	return &Client{http: httpClient, limiter: limiter, headers: headers}
}

// SetDefaultHeader sets a header sent with every subsequent request.
func (c *Client) SetDefaultHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[key] = value
}

// DefaultHeaders returns a copy of the current default-header bag.
func (c *Client) DefaultHeaders() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		out[k] = v
	}
	return out
}

func (c *Client) do(ctx context.Context, method, url string, headers map[string]string, body io.Reader) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, ferr.Wrap(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, ferr.BadRequest("building request: %v", err)
	}

	c.mu.RLock()
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	c.mu.RUnlock()
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ferr.ServiceUnavailable("request to %s failed: %v", url, err)
	}
	return resp, nil
}

func readAll(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ferr.Wrap(err)
	}
	return string(body), nil
}

// Get issues a GET and returns the response body as a string.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (Response[string], error) {
	resp, err := c.do(ctx, http.MethodGet, url, headers, nil)
	if err != nil {
		return Response[string]{}, err
	}
	body, err := readAll(resp)
	return Response[string]{Code: resp.StatusCode, Header: resp.Header, Body: body}, err
}

// GetToVoid issues a GET and discards the response body.
func (c *Client) GetToVoid(ctx context.Context, url string, headers map[string]string) (Response[struct{}], error) {
	resp, err := c.do(ctx, http.MethodGet, url, headers, nil)
	if err != nil {
		return Response[struct{}]{}, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return Response[struct{}]{Code: resp.StatusCode, Header: resp.Header}, nil
}

// Head issues a HEAD request.
func (c *Client) Head(ctx context.Context, url string, headers map[string]string) (Response[struct{}], error) {
	resp, err := c.do(ctx, http.MethodHead, url, headers, nil)
	if err != nil {
		return Response[struct{}]{}, err
	}
	resp.Body.Close()
	return Response[struct{}]{Code: resp.StatusCode, Header: resp.Header}, nil
}

// GetToObj issues a GET and JSON-decodes the response body into T. Free
// function because Go methods cannot introduce their own type parameters.
func GetToObj[T any](ctx context.Context, c *Client, url string, headers map[string]string) (Response[T], error) {
	resp, err := c.do(ctx, http.MethodGet, url, headers, nil)
	if err != nil {
		return Response[T]{}, err
	}
	return decodeJSON[T](resp)
}

func decodeJSON[T any](resp *http.Response) (Response[T], error) {
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		return Response[T]{Code: resp.StatusCode, Header: resp.Header}, ferr.Internal("decoding response body: %v", err)
	}
	return Response[T]{Code: resp.StatusCode, Header: resp.Header, Body: out}, nil
}

func (c *Client) verbStrToStr(ctx context.Context, method, url, body string, headers map[string]string) (Response[string], error) {
	resp, err := c.do(ctx, method, url, withJSONContentType(headers, false), strings.NewReader(body))
	if err != nil {
		return Response[string]{}, err
	}
	out, err := readAll(resp)
	return Response[string]{Code: resp.StatusCode, Header: resp.Header, Body: out}, err
}

func (c *Client) verbObjToStr(ctx context.Context, method, url string, body any, headers map[string]string) (Response[string], error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Response[string]{}, ferr.BadRequest("marshalling request body: %v", err)
	}
	resp, err := c.do(ctx, method, url, withJSONContentType(headers, true), bytes.NewReader(payload))
	if err != nil {
		return Response[string]{}, err
	}
	out, err := readAll(resp)
	return Response[string]{Code: resp.StatusCode, Header: resp.Header, Body: out}, err
}

func (c *Client) verbToVoid(ctx context.Context, method, url string, body any, headers map[string]string) (Response[struct{}], error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Response[struct{}]{}, ferr.BadRequest("marshalling request body: %v", err)
	}
	resp, err := c.do(ctx, method, url, withJSONContentType(headers, true), bytes.NewReader(payload))
	if err != nil {
		return Response[struct{}]{}, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return Response[struct{}]{Code: resp.StatusCode, Header: resp.Header}, nil
}

func withJSONContentType(headers map[string]string, set bool) map[string]string {
	if !set {
		return headers
	}
	out := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		out[k] = v
	}
	if _, ok := out["Content-Type"]; !ok {
		out["Content-Type"] = "application/json"
	}
	return out
}

// PostStrToStr posts a raw string body and returns the response as a string.
func (c *Client) PostStrToStr(ctx context.Context, url, body string, headers map[string]string) (Response[string], error) {
	return c.verbStrToStr(ctx, http.MethodPost, url, body, headers)
}

// PutStrToStr is PostStrToStr for PUT.
func (c *Client) PutStrToStr(ctx context.Context, url, body string, headers map[string]string) (Response[string], error) {
	return c.verbStrToStr(ctx, http.MethodPut, url, body, headers)
}

// PatchStrToStr is PostStrToStr for PATCH.
func (c *Client) PatchStrToStr(ctx context.Context, url, body string, headers map[string]string) (Response[string], error) {
	return c.verbStrToStr(ctx, http.MethodPatch, url, body, headers)
}

// PostObjToStr JSON-encodes body and returns the response as a string.
func (c *Client) PostObjToStr(ctx context.Context, url string, body any, headers map[string]string) (Response[string], error) {
	return c.verbObjToStr(ctx, http.MethodPost, url, body, headers)
}

// PutObjToStr is PostObjToStr for PUT.
func (c *Client) PutObjToStr(ctx context.Context, url string, body any, headers map[string]string) (Response[string], error) {
	return c.verbObjToStr(ctx, http.MethodPut, url, body, headers)
}

// PatchObjToStr is PostObjToStr for PATCH.
func (c *Client) PatchObjToStr(ctx context.Context, url string, body any, headers map[string]string) (Response[string], error) {
	return c.verbObjToStr(ctx, http.MethodPatch, url, body, headers)
}

// PostToVoid JSON-encodes body, posts it, and discards the response body.
func (c *Client) PostToVoid(ctx context.Context, url string, body any, headers map[string]string) (Response[struct{}], error) {
	return c.verbToVoid(ctx, http.MethodPost, url, body, headers)
}

// PutToVoid is PostToVoid for PUT.
func (c *Client) PutToVoid(ctx context.Context, url string, body any, headers map[string]string) (Response[struct{}], error) {
	return c.verbToVoid(ctx, http.MethodPut, url, body, headers)
}

// PatchToVoid is PostToVoid for PATCH.
func (c *Client) PatchToVoid(ctx context.Context, url string, body any, headers map[string]string) (Response[struct{}], error) {
	return c.verbToVoid(ctx, http.MethodPatch, url, body, headers)
}

// PostToObj JSON-encodes reqBody, posts it, and JSON-decodes the response
// into RespT. Free function for the same reason as GetToObj.
func PostToObj[ReqT any, RespT any](ctx context.Context, c *Client, url string, reqBody ReqT, headers map[string]string) (Response[RespT], error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Response[RespT]{}, ferr.BadRequest("marshalling request body: %v", err)
	}
	resp, err := c.do(ctx, http.MethodPost, url, withJSONContentType(headers, true), bytes.NewReader(payload))
	if err != nil {
		return Response[RespT]{}, err
	}
	return decodeJSON[RespT](resp)
}

// PutToObj is PostToObj for PUT.
func PutToObj[ReqT any, RespT any](ctx context.Context, c *Client, url string, reqBody ReqT, headers map[string]string) (Response[RespT], error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Response[RespT]{}, ferr.BadRequest("marshalling request body: %v", err)
	}
	resp, err := c.do(ctx, http.MethodPut, url, withJSONContentType(headers, true), bytes.NewReader(payload))
	if err != nil {
		return Response[RespT]{}, err
	}
	return decodeJSON[RespT](resp)
}

// Timeout reports the configured per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.http.Timeout
}
