package fetch

import (
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the JSE daily quote sheet page.
	DefaultBaseURL = "https://www.jamstockex.com/trading/trade-quotes/daily-quote-pdf/"
	// DefaultUserAgent looks like a browser; the site rejects bare clients.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121 Safari/537.36"
	// DefaultRetries is the number of retries after a transient failure.
	DefaultRetries = 3
	// DefaultMaxBody caps a single download.
	DefaultMaxBody = 32 << 20
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=fetch_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client downloads JSE daily quote sheets.
type Client struct {
	// baseURL is the quote sheet page; date and market go in the query.
	baseURL string
	// httpClient performs the requests.
	httpClient HTTPClient
	// header is sent with every request.
	header http.Header
	// newBackOff builds the retry policy for one request.
	newBackOff func() backoff.BackOff
	// maxBody is the largest response body accepted.
	maxBody int64
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the quote sheet page URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader adds headers to every request, replacing defaults of the same name.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			c.header.Del(key)
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithRetries retries transient failures n times with exponential backoff.
func WithRetries(n uint64) Option {
	return func(c *Client) {
		c.newBackOff = func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), n)
		}
	}
}

// WithBackOff replaces the retry policy. f is called once per request.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = f
	}
}

// WithMaxBody rejects responses larger than n bytes.
func WithMaxBody(n int64) Option {
	return func(c *Client) {
		c.maxBody = n
	}
}

// WithLogger sets the logger used for retry notices.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewHTTPClient returns an *http.Client with transport timeouts suited to
// a handful of large downloads.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSHandshakeTimeout = 10 * time.Second
	transport.ResponseHeaderTimeout = timeout
	return &http.Client{Timeout: timeout, Transport: transport}
}

// NewClient creates a quote sheet client.
func NewClient(options ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		header: http.Header{
			"User-Agent":      []string{DefaultUserAgent},
			"Accept":          []string{"application/pdf,text/html;q=0.9,*/*;q=0.8"},
			"Accept-Language": []string{"en-US,en;q=0.9"},
		},
		maxBody: DefaultMaxBody,
		log:     zap.NewNop(),
	}
	WithRetries(DefaultRetries)(c)
	for _, option := range options {
		option(c)
	}
	return c
}
