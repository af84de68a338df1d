package alphavantage

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// DefaultBaseURL serves every Alpha Vantage function from a single /query
// endpoint, selected by the "function" parameter.
const DefaultBaseURL = "https://www.alphavantage.co"

const queryPath = "/query"

// HTTPClient is the subset of *http.Client the Alpha Vantage client needs.
//
//go:generate mockgen -package=alphavantage_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the Alpha Vantage query endpoint. The API key travels as the
// "apikey" query parameter, not a header, so it is part of the fixed query
// sent with every call.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	header     http.Header
	// query holds apikey, datatype and entitlement.
	query url.Values
}

type ClientOption func(*Client)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader adds headers to every request, typically a User-Agent.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithEntitlement sets the "entitlement" parameter premium keys use to get
// "realtime" or 15-minute "delayed" data. Free keys must leave it unset.
func WithEntitlement(entitlement string) ClientOption {
	return func(c *Client) {
		if entitlement == "" {
			c.query.Del("entitlement")
			return
		}
		c.query.Set("entitlement", entitlement)
	}
}

// NewClient returns a client for key. Even the free tier (25 requests per
// day) requires a key, so a blank one is rejected. Responses are always
// requested as JSON.
func NewClient(key string, options ...ClientOption) (*Client, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("alphavantage: api key is required")
	}
	client := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{"apikey": {key}, "datatype": {"json"}},
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}
