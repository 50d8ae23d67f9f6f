package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log"
	"net/http"
	neturl "net/url"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 30
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// Transport sends an assembled request.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Client sends requests over net/http.
type Client struct {
	httpClient     *http.Client
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	verify         bool
	rootCAs        *x509.CertPool
	proxyURL       *neturl.URL
	digest         *DigestCredentials
	logger         *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a client. Redirects are not followed unless
// WithFollowRedirects is given.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:      DefaultTimeout,
		maxRedirects: DefaultMaxRedirects,
		verify:       true,
		logger:       log.New(io.Discard, "", 0),
	}

	for _, opt := range opts {
		opt(c)
	}

	// Accept-Encoding is part of the rendered request, so decoding is ours.
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		DisableCompression:  true,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !c.verify,
			RootCAs:            c.rootCAs,
		},
	}

	if c.proxyURL != nil {
		transport.Proxy = http.ProxyURL(c.proxyURL)
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !c.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) > c.maxRedirects {
			return &redirectError{max: c.maxRedirects}
		}
		c.logger.Printf("redirect %d -> %s", len(via), req.URL)
		return nil
	}

	c.httpClient = &http.Client{
		Transport:     transport,
		Timeout:       c.timeout,
		CheckRedirect: redirectPolicy,
	}

	return c
}

// WithTimeout sets the overall request timeout. Zero disables it.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithFollowRedirects sets whether to follow redirects
func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

// WithMaxRedirects limits the hops followed before a redirect error.
func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

// WithVerify enables or disables certificate verification
func WithVerify(verify bool) ClientOption {
	return func(c *Client) {
		c.verify = verify
	}
}

// WithRootCAs verifies servers against pool instead of the system roots
func WithRootCAs(pool *x509.CertPool) ClientOption {
	return func(c *Client) {
		c.rootCAs = pool
	}
}

// WithProxy sends every request through proxy
func WithProxy(proxy *neturl.URL) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxy
	}
}

// WithDigestAuth answers a Digest challenge with the given credentials
func WithDigestAuth(username, password string) ClientOption {
	return func(c *Client) {
		c.digest = &DigestCredentials{Username: username, Password: password}
	}
}

// WithLogger sets the debug logger.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// LoadRootCAs reads a PEM bundle for WithRootCAs.
func LoadRootCAs(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}

// Send performs the request. Every failure is a *TransportError; HTTP error
// statuses are not failures.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.doRequest(ctx, req, "")
	if err != nil {
		return nil, err
	}

	if c.digest == nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	challenge := resp.Header("www-authenticate")
	if !isDigestChallenge(challenge) {
		return resp, nil
	}

	authHeader, err := c.digest.Authorize(req.Method(), req.RequestURI(), challenge)
	if err != nil {
		return nil, &TransportError{URL: req.URLString(), Kind: KindOther, Err: err}
	}
	c.logger.Printf("answering digest challenge for %s", req.URLString())
	return c.doRequest(ctx, req, authHeader)
}

func (c *Client) doRequest(ctx context.Context, req *Request, authHeader string) (*Response, error) {
	target := req.URLString()

	httpReq, err := http.NewRequestWithContext(ctx, req.Method(), target, bytes.NewReader(req.Body()))
	if err != nil {
		return nil, &TransportError{URL: target, Kind: KindOther, Err: err}
	}

	for _, h := range req.Headers() {
		switch h.Name {
		case "host":
			httpReq.Host = h.Value
		case "content-length":
			// net/http derives it from the body
		default:
			httpReq.Header.Add(h.Name, h.Value)
		}
	}
	if _, ok := req.Header("user-agent"); !ok {
		// An empty value stops net/http from adding its own.
		httpReq.Header.Set("User-Agent", "")
	}
	if authHeader != "" {
		httpReq.Header.Set("Authorization", authHeader)
	}

	c.logger.Printf("%s %s", req.Method(), target)
	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Printf("%s %s failed after %s: %v", req.Method(), target, time.Since(start), err)
		return nil, newTransportError(target, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	duration := time.Since(start)
	if err != nil {
		return nil, newTransportError(target, err)
	}
	c.logger.Printf("%s %s -> %d in %s", req.Method(), target, httpResp.StatusCode, duration)

	body, err := decodeBody(httpResp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		c.logger.Printf("keeping encoded body: %v", err)
		body = raw
	}

	return newResponse(httpResp, body, duration), nil
}

func decodeBody(encoding string, body []byte) ([]byte, error) {
	if len(body) == 0 {
		return body, nil
	}

	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case "deflate":
		// Servers disagree on whether deflate means zlib framing or a raw stream.
		if r, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			defer r.Close()
			return io.ReadAll(r)
		}
		r := flate.NewReader(bytes.NewReader(body))
		defer r.Close()
		return io.ReadAll(r)
	}
	return body, nil
}
