package appledb

import (
	"fmt"
	"time"
)

// ClientConfig represents configuration for creating API clients
type ClientConfig struct {
	Provider  string
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// ClientFactory creates API clients based on provider type
type ClientFactory interface {
	CreateClient(config ClientConfig) (Client, error)
}

// DefaultClientFactory implements ClientFactory
type DefaultClientFactory struct{}

// NewClientFactory creates a new client factory
func NewClientFactory() ClientFactory {
	return &DefaultClientFactory{}
}

// CreateClient creates an API client based on the provider configuration
func (f *DefaultClientFactory) CreateClient(clientConfig ClientConfig) (Client, error) {
	switch clientConfig.Provider {
	case "appledb", "":
		return f.createAppleDBClient(clientConfig), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", clientConfig.Provider)
	}
}

func (f *DefaultClientFactory) createAppleDBClient(clientConfig ClientConfig) Client {
	config := DefaultConfig()

	if clientConfig.BaseURL != "" {
		config.BaseURL = clientConfig.BaseURL
	}
	if clientConfig.UserAgent != "" {
		config.UserAgent = clientConfig.UserAgent
	}
	if clientConfig.Timeout > 0 {
		config.Timeout = clientConfig.Timeout
		config.HTTPClient = nil
	}

	return NewClient(config)
}
