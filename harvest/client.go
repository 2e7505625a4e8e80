// Package harvest is a client for the Harvest time tracking XML API.
//
// Every operation issues at most one authenticated HTTP request. Directory
// lookups (projects, clients, people) and project entry queries can be
// served from a pluggable Cache.
package harvest

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"
)

const (
	// DefaultURLTemplate is formatted with the account name to build the API base URL.
	DefaultURLTemplate = "http://%s.harvestapp.com/"
	// DefaultTimeout bounds every request.
	DefaultTimeout = 60 * time.Second
	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "harvestctl time tracker"
)

// StatusPolicy decides how non-2xx responses are surfaced.
type StatusPolicy int

const (
	// StatusPermissive returns non-2xx bodies like any other response.
	StatusPermissive StatusPolicy = iota
	// StatusStrict turns non-2xx responses into a *StatusError.
	StatusStrict
)

// Client is an authenticated Harvest API client.
type Client struct {
	email    string
	password string
	account  string

	urlTemplate  string
	userAgent    string
	timeout      time.Duration
	statusPolicy StatusPolicy
	tokenSource  oauth2.TokenSource

	httpClient *http.Client
	cache      Cache

	mu        sync.Mutex
	userNames map[int64]string
}

// Option configures a Client.
type Option func(*Client)

// WithCache installs a cache collaborator. Equivalent to calling SetCache.
func WithCache(c Cache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithHTTPClient replaces the default pooled client. The client is copied;
// the copy's Timeout is set to the configured request timeout and hc itself
// is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(cl *Client) { cl.httpClient = hc }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		if ua != "" {
			cl.userAgent = ua
		}
	}
}

// WithURLTemplate overrides DefaultURLTemplate. The template must contain
// exactly one %s verb for the account and end with a slash.
func WithURLTemplate(tmpl string) Option {
	return func(cl *Client) {
		if tmpl != "" {
			cl.urlTemplate = tmpl
		}
	}
}

// WithStatusPolicy selects how non-2xx responses are reported.
func WithStatusPolicy(p StatusPolicy) Option {
	return func(cl *Client) { cl.statusPolicy = p }
}

// WithTokenSource authenticates with OAuth2 bearer tokens instead of
// basic auth. Email and password are then no longer required.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(cl *Client) { cl.tokenSource = ts }
}

// New creates a client for the given credentials. Nothing is validated
// until the first request.
func New(email, password, account string, opts ...Option) *Client {
	c := &Client{
		email:        email,
		password:     password,
		account:      account,
		urlTemplate:  DefaultURLTemplate,
		userAgent:    DefaultUserAgent,
		timeout:      DefaultTimeout,
		statusPolicy: StatusPermissive,
		userNames:    make(map[int64]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = cleanhttp.DefaultPooledClient()
	} else {
		// Shallow copy: timeout and transport changes stay local to this client.
		hc := *c.httpClient
		c.httpClient = &hc
	}
	c.httpClient.Timeout = c.timeout
	if c.tokenSource != nil {
		base := c.httpClient.Transport
		if base == nil {
			base = cleanhttp.DefaultPooledTransport()
		}
		c.httpClient.Transport = &oauth2.Transport{Source: c.tokenSource, Base: base}
	}
	return c
}

// SetCache installs or, with nil, removes the cache collaborator.
func (c *Client) SetCache(cache Cache) {
	c.cache = cache
}

// APIURL returns the account's API base URL, always ending in a slash.
func (c *Client) APIURL() (string, error) {
	if c.account == "" {
		return "", fmt.Errorf("%w: no account configured", ErrConfig)
	}
	return fmt.Sprintf(c.urlTemplate, c.account), nil
}
