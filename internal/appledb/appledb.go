// Package appledb provides the HTTP transport for the AppleDB catalog API.
// It fetches raw documents; decoding lives in the catalog package.
package appledb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clean-dependency-project/peardb/internal/catalog"
)

const (
	// DefaultBaseURL is the default AppleDB API base URL
	DefaultBaseURL = "https://api.appledb.dev"

	// DefaultTimeout is the default per-request timeout
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is the default User-Agent header
	DefaultUserAgent = "peardb/1.0"

	// maxDocumentSize caps a single response body
	maxDocumentSize = 256 << 20
)

// Resource names of the default catalog documents.
const (
	ResourceDeviceMain    = "device_main"
	ResourceDeviceIndex   = "device_index"
	ResourceFirmwareMain  = "ios_main"
	ResourceFirmwareIndex = "ios_index"
)

// DefaultResources maps each default resource name to its path under the base URL.
func DefaultResources() map[string]string {
	return map[string]string{
		ResourceDeviceMain:    "device/main.json",
		ResourceDeviceIndex:   "device/index.json",
		ResourceFirmwareMain:  "ios/main.json",
		ResourceFirmwareIndex: "ios/index.json",
	}
}

// ResolveURL returns ref unchanged when it is an absolute URL and joins it onto base otherwise.
func ResolveURL(base, ref string) (string, error) {
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref, nil
	}
	joined, err := url.JoinPath(base, ref)
	if err != nil {
		return "", fmt.Errorf("failed to construct URL for %q: %w", ref, err)
	}
	return joined, nil
}

// Client defines the interface for the AppleDB API
type Client interface {
	// Fetch downloads the document at rawURL. resource names it in errors and logs.
	Fetch(ctx context.Context, resource, rawURL string) ([]byte, error)

	// FetchDevice downloads the detail document for a single device key.
	FetchDevice(ctx context.Context, key string) ([]byte, error)
}

// HTTPClient defines the interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds configuration for the AppleDB client
type Config struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient HTTPClient
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: DefaultUserAgent,
		Timeout:   DefaultTimeout,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// client implements the Client interface
type client struct {
	config Config
}

// NewClient creates a new AppleDB API client
func NewClient(config Config) Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	return &client{config: config}
}

// Fetch downloads a document. Every failure is a *catalog.NetworkError;
// timeouts additionally match catalog.ErrTimeout.
func (c *client) Fetch(ctx context.Context, resource, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &catalog.NetworkError{Resource: resource, URL: rawURL, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return nil, &catalog.NetworkError{Resource: resource, URL: rawURL, Timeout: isTimeout(err), Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &catalog.NetworkError{
			Resource:   resource,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        errors.New(resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, &catalog.NetworkError{Resource: resource, URL: rawURL, Timeout: isTimeout(err), Err: err}
	}
	return body, nil
}

// FetchDevice downloads {base}/device/{key}.json with the key path-escaped.
func (c *client) FetchDevice(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, &catalog.NetworkError{Resource: "device", Err: errors.New("device key cannot be empty")}
	}
	rawURL := strings.TrimRight(c.config.BaseURL, "/") + "/device/" + url.PathEscape(key) + ".json"
	return c.Fetch(ctx, "device/"+key, rawURL)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
