package api

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"

	"github.com/geoplet/backend/pkg/xcontext"
)

type Client interface {
	Header(name, value string) Client
	Query(query Parameter) Client
	Body(body Body) Client
	POST(ctx context.Context, opts ...Opt) (*Response, error)
	GET(ctx context.Context, opts ...Opt) (*Response, error)
}

type Generator interface {
	New(path string, args ...any) Client
}

type defaultGenerator struct {
	domains []string
	policy  RetryPolicy
}

// NewGenerator creates clients which call the path on the given domains in
// random order until one answers. Without domains, the path must be a full
// URL.
func NewGenerator(domains ...string) *defaultGenerator {
	if len(domains) == 0 {
		domains = []string{""}
	}

	return &defaultGenerator{domains: domains, policy: DefaultRetryPolicy}
}

func (g *defaultGenerator) WithRetryPolicy(policy RetryPolicy) *defaultGenerator {
	g.policy = policy
	return g
}

func (g *defaultGenerator) New(path string, args ...any) Client {
	if len(args) > 0 {
		path = fmt.Sprintf(path, args...)
	}

	return &defaultClient{
		domains: g.domains,
		policy:  g.policy,
		path:    path,
		headers: make(http.Header),
	}
}

type Body interface {
	ToReader() (io.Reader, string, error)
}

type Opt interface {
	Do(defaultClient, *http.Request)
}

type defaultClient struct {
	domains []string
	policy  RetryPolicy
	method  string
	path    string
	headers http.Header
	query   Parameter
	body    Body
}

func (c *defaultClient) Header(name, value string) Client {
	c.headers[name] = []string{value}
	return c
}

func (c *defaultClient) Query(query Parameter) Client {
	c.query = query
	return c
}

func (c *defaultClient) Body(body Body) Client {
	c.body = body
	return c
}

func (c *defaultClient) POST(ctx context.Context, opts ...Opt) (*Response, error) {
	c.method = http.MethodPost
	return c.call(ctx, opts...)
}

func (c *defaultClient) GET(ctx context.Context, opts ...Opt) (*Response, error) {
	c.method = http.MethodGet
	return c.call(ctx, opts...)
}

func (c *defaultClient) newRequest(ctx context.Context, url string, opts ...Opt) (*http.Request, error) {
	var reader io.Reader
	var contentType string
	if c.body != nil {
		var err error
		reader, contentType, err = c.body.ToReader()
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, c.method, url, reader)
	if err != nil {
		return nil, err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	for h, values := range c.headers {
		for _, v := range values {
			req.Header.Add(h, v)
		}
	}

	for _, opt := range opts {
		opt.Do(*c, req)
	}

	return req, nil
}

func (c *defaultClient) call(ctx context.Context, opts ...Opt) (*Response, error) {
	var lastErr error
	for _, index := range rand.Perm(len(c.domains)) {
		url := c.domains[index] + c.path
		if len(c.query) > 0 {
			url = url + "?" + c.query.Encode()
		}

		result, err := Do(ctx, xcontext.HTTPClient(ctx), func(ctx context.Context) (*http.Request, error) {
			return c.newRequest(ctx, url, opts...)
		}, c.policy)
		if err != nil {
			xcontext.Logger(ctx).Warnf("An error occured when calling to %s: %v", url, err)
			lastErr = err
			continue
		}

		body, err := io.ReadAll(result.Body)
		if err != nil {
			xcontext.Logger(ctx).Warnf("An error occured when reading body of %s: %v", url, err)
			lastErr = err
			continue
		}

		response := &Response{
			Code:    result.StatusCode,
			Header:  result.Header,
			RawBody: body,
		}

		if len(body) == 0 {
			response.Body = JSON{}
		} else if b, err := bytesToJSON(body); err == nil {
			response.Body = b
		} else if b, err := bytesToArray(body); err == nil {
			response.Body = b
		}

		return response, nil
	}

	return nil, fmt.Errorf("all endpoints got errors: %w", lastErr)
}

type Response struct {
	Code    int
	Header  http.Header
	Body    any
	RawBody []byte
}

// IsSuccess reports a 2xx status code.
func (r *Response) IsSuccess() bool {
	return r.Code >= 200 && r.Code < 300
}
