// Package commerce is a client for the WooCommerce v3 REST API, which owns
// the catalog, pricing, inventory and orders.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration

	// BreakerFailures consecutive failures open the breaker for BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

type Client struct {
	baseURL        *url.URL
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
	breaker        *gobreaker.CircuitBreaker[*rawResponse]
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

// errServerStatus makes 5xx answers count against the breaker while keeping
// the body for the caller.
type errServerStatus struct {
	resp *rawResponse
}

func (e *errServerStatus) Error() string {
	return fmt.Sprintf("server responded %d", e.resp.status)
}

func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid commerce base url: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
		Name:        "commerce-api",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
	})

	return &Client{
		baseURL:        base,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
	}, nil
}

// request describes one call to the API. Store-scoped calls carry the
// consumer keys; customer-scoped calls carry only the shopper's token.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	token  string
	body   any
	// asCustomer omits the consumer keys so the token alone authenticates.
	asCustomer bool
}

// do sends one request. No retries are made. A 2xx body is decoded into out
// when out is non-nil; anything else becomes *APIError.
func (c *Client) do(ctx context.Context, r request, out any) (http.Header, error) {
	u := *c.baseURL
	u.Path = u.Path + r.path
	q := url.Values{}
	for k, v := range r.query {
		q[k] = v
	}
	if c.consumerKey != "" && !r.asCustomer {
		q.Set("consumer_key", c.consumerKey)
		q.Set("consumer_secret", c.consumerSecret)
	}
	u.RawQuery = q.Encode()

	var body []byte
	if r.body != nil {
		var err error
		body, err = json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", r.op, err)
		}
	}

	resp, err := c.breaker.Execute(func() (*rawResponse, error) {
		req, err := http.NewRequestWithContext(ctx, r.method, u.String(), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if r.body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if r.token != "" {
			req.Header.Set("Authorization", "Bearer "+r.token)
		}

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, err
		}
		raw := &rawResponse{status: httpResp.StatusCode, header: httpResp.Header, body: data}
		if raw.status >= 500 {
			return nil, &errServerStatus{resp: raw}
		}
		return raw, nil
	})

	var serverErr *errServerStatus
	switch {
	case errors.As(err, &serverErr):
		resp = serverErr.resp
	case err != nil:
		return nil, transportError(r.op, err)
	}

	if resp.status < 200 || resp.status > 299 {
		return resp.header, decodeAPIError(resp)
	}
	if out != nil && len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return resp.header, transportError(r.op, fmt.Errorf("decode response: %w", err))
		}
	}
	return resp.header, nil
}

func decodeAPIError(resp *rawResponse) *APIError {
	apiErr := &APIError{StatusCode: resp.status}
	var b apiErrorBody
	if err := json.Unmarshal(resp.body, &b); err == nil {
		apiErr.Code = b.Code
		apiErr.Message = b.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = defaultAPIMessage
	}
	return apiErr
}
