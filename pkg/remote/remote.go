// Package remote is the JSON-RPC 2.0 transport of generated Go clients. It
// depends on the standard library only so generated SDKs stay free of
// third-party requirements.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Error is the error member of a JSON-RPC response, or an HTTP failure
// reported with the status code as Code.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote: %s (code %d)", e.Message, e.Code)
}

// Client calls methods of one deployed backend class.
type Client struct {
	url     string
	http    *http.Client
	headers http.Header
	nextID  atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Add(key, value)
	}
}

// New returns a client posting to url.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:     url,
		http:    http.DefaultClient,
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string {
	return c.url
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type response struct {
	Result any    `json:"result"`
	Error  *Error `json:"error"`
}

// Call invokes method with positional args and returns the decoded result.
// Numbers arrive as float64; use the helpers below to narrow them.
func (c *Client) Call(ctx context.Context, method string, args ...any) (any, error) {
	if args == nil {
		args = []any{}
	}

	body, err := json.Marshal(request{JSONRPC: "2.0", Method: method, Params: args, ID: c.nextID.Add(1)})
	if err != nil {
		return nil, fmt.Errorf("remote: encode %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &Error{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode), Data: string(msg)}
	}

	var env response
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("remote: decode %s: %w", method, err)
	}
	if env.Error != nil {
		return nil, env.Error
	}
	return env.Result, nil
}

func mismatch(want string, raw any) error {
	return fmt.Errorf("remote: expected %s, got %T", want, raw)
}

// String decodes a string.
func String(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", mismatch("string", raw)
	}
	return s, nil
}

// Int decodes an integer. The wire carries one number type, so 3.0 becomes
// 3 and fractions are truncated toward zero. Numeric strings, as used for
// object keys, are accepted.
func Int(raw any) (int, error) {
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("remote: %w", err)
		}
		return int(f), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, mismatch("number", raw)
		}
		return int(f), nil
	}
	return 0, mismatch("number", raw)
}

// Float decodes a floating-point number.
func Float(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, mismatch("number", raw)
		}
		return f, nil
	}
	return 0, mismatch("number", raw)
}

// Bool decodes a boolean, accepting "true" and "false" strings.
func Bool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, mismatch("boolean", raw)
		}
		return b, nil
	}
	return false, mismatch("boolean", raw)
}

// Time decodes an RFC 3339 timestamp.
func Time(raw any) (time.Time, error) {
	s, err := String(raw)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("remote: %w", err)
	}
	return t, nil
}

// Object decodes a JSON object.
func Object(raw any) (map[string]any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, mismatch("object", raw)
	}
	return m, nil
}

// Slice decodes an array element by element. null decodes to a nil slice.
func Slice[T any](raw any, elem func(any) (T, error)) ([]T, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, mismatch("array", raw)
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		v, err := elem(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Map decodes an object into a map, converting each key with key. null
// decodes to a nil map.
func Map[K comparable, V any](raw any, key func(string) (K, error), value func(any) (V, error)) (map[K]V, error) {
	if raw == nil {
		return nil, nil
	}
	m, err := Object(raw)
	if err != nil {
		return nil, err
	}

	out := make(map[K]V, len(m))
	for k, item := range m {
		kk, err := key(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		v, err := value(item)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", k, err)
		}
		out[kk] = v
	}
	return out, nil
}

// Ptr decodes an optional value. null and absent decode to nil.
func Ptr[T any](raw any, elem func(any) (T, error)) (*T, error) {
	if raw == nil {
		return nil, nil
	}
	v, err := elem(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
