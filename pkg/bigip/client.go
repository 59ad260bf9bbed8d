// Package bigip reads LTM configuration from an F5 BIG-IP over iControl REST.
package bigip

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ritzau/ltm-terrify/pkg/logging"
	"github.com/ritzau/ltm-terrify/pkg/model"
	"github.com/ritzau/ltm-terrify/pkg/source"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client
type Options struct {
	Host      string // host[:port] or full https:// URL
	User      string
	Password  string
	Partition string // restricts collections when set, e.g. "Common"
	Insecure  bool   // skip TLS verification (self-signed management certs)
	Timeout   time.Duration
}

// Client implements source.Source against the iControl REST API
type Client struct {
	base      *url.URL
	user      string
	password  string
	partition string
	doer      Doer
}

var _ source.Source = (*Client)(nil)

// NewClient creates a client using a logging http.Client built from opts
func NewClient(opts Options) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	httpClient := &http.Client{
		Transport: logging.NewTransport(transport),
		Timeout:   opts.Timeout,
	}
	return NewClientWithDoer(opts, httpClient)
}

// NewClientWithDoer creates a client that sends requests through doer
func NewClientWithDoer(opts Options, doer Doer) (*Client, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("bigip host is required")
	}

	raw := opts.Host
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid bigip host %q: %w", opts.Host, err)
	}
	base.Path = strings.TrimSuffix(base.Path, "/")

	return &Client{
		base:      base,
		user:      opts.User,
		password:  opts.Password,
		partition: opts.Partition,
		doer:      doer,
	}, nil
}

func (c *Client) Name() string {
	return "bigip:" + c.base.Host
}

// collection is the envelope iControl REST wraps every list in
type collection[T any] struct {
	Kind  string `json:"kind"`
	Items []T    `json:"items"`
}

func (c *Client) VirtualServers(ctx context.Context) ([]model.VirtualServer, error) {
	return getCollection[model.VirtualServer](ctx, c, "ltm/virtual", true)
}

func (c *Client) Pools(ctx context.Context) ([]model.Pool, error) {
	return getCollection[model.Pool](ctx, c, "ltm/pool", true)
}

func (c *Client) PoolMembers(ctx context.Context, pool model.Pool) ([]model.Member, error) {
	return getCollection[model.Member](ctx, c, "ltm/pool/"+EncodePath(pool.FullPath)+"/members", false)
}

func (c *Client) Nodes(ctx context.Context) ([]model.Node, error) {
	return getCollection[model.Node](ctx, c, "ltm/node", true)
}

// EncodePath converts a fullPath to the "~Partition~name" form used in resource URLs
func EncodePath(fullPath string) string {
	return strings.ReplaceAll(fullPath, "/", "~")
}

func getCollection[T any](ctx context.Context, c *Client, resource string, partitioned bool) ([]T, error) {
	u := *c.base
	u.Path = c.base.Path + "/mgmt/tm/" + resource
	if partitioned && c.partition != "" {
		q := url.Values{}
		q.Set("$filter", "partition eq "+c.partition)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", resource, err)
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", resource, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", resource, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, u.Path, body)
	}

	var result collection[T]
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", resource, err)
	}

	logging.DebugContext(ctx, "fetched collection", "resource", resource, "count", len(result.Items))
	return result.Items, nil
}
