package upstream

import (
	"net/http"
	"net/url"

	"github.com/google/go-github/v57/github"
)

// NewTestClient creates a client with a custom HTTP client and base URL.
// This allows tests to use httptest.Server for mocking GitHub API responses.
func NewTestClient(httpClient *http.Client, baseURL, repository string) (*Client, error) {
	owner, repo, err := parseRepository(repository)
	if err != nil {
		return nil, err
	}

	ghClient := github.NewClient(httpClient)

	// go-github requires a trailing slash on the base URL
	parsedURL, err := url.Parse(baseURL + "/")
	if err != nil {
		return nil, err
	}
	ghClient.BaseURL = parsedURL

	return &Client{
		client: ghClient,
		owner:  owner,
		repo:   repo,
	}, nil
}
