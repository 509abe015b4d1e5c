package appledb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clean-dependency-project/peardb/internal/catalog"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaseURL != DefaultBaseURL {
		t.Errorf("Expected BaseURL %s, got %s", DefaultBaseURL, config.BaseURL)
	}
	if config.UserAgent != DefaultUserAgent {
		t.Errorf("Expected UserAgent %s, got %s", DefaultUserAgent, config.UserAgent)
	}
	if config.Timeout != DefaultTimeout {
		t.Errorf("Expected Timeout %v, got %v", DefaultTimeout, config.Timeout)
	}
	if config.HTTPClient == nil {
		t.Error("Expected HTTPClient to be set")
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name, base, ref, want string
	}{
		{name: "relative", base: "https://api.appledb.dev", ref: "device/main.json", want: "https://api.appledb.dev/device/main.json"},
		{name: "trailing slash", base: "https://api.appledb.dev/", ref: "ios/index.json", want: "https://api.appledb.dev/ios/index.json"},
		{name: "absolute", base: "https://api.appledb.dev", ref: "https://mirror.example.com/main.json", want: "https://mirror.example.com/main.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveURL(tt.base, tt.ref)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClient_Fetch(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/device/main.json":
			_, _ = w.Write([]byte(`[{"name":"iPhone 15","key":"iPhone15,4"}]`))
		case "/device/iPhone15,4.json":
			_, _ = w.Write([]byte(`{"name":"iPhone 15","key":"iPhone15,4"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, UserAgent: "peardb-test"})

	body, err := c.Fetch(context.Background(), ResourceDeviceMain, server.URL+"/device/main.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(body) == 0 {
		t.Error("expected a body")
	}
	if gotUA != "peardb-test" {
		t.Errorf("expected User-Agent peardb-test, got %q", gotUA)
	}

	if _, err := c.FetchDevice(context.Background(), "iPhone15,4"); err != nil {
		t.Errorf("FetchDevice: unexpected error: %v", err)
	}

	_, err = c.Fetch(context.Background(), "missing", server.URL+"/nope.json")
	var netErr *catalog.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *catalog.NetworkError, got %T", err)
	}
	if netErr.StatusCode != http.StatusNotFound || netErr.Resource != "missing" {
		t.Errorf("unexpected error details: %+v", netErr)
	}
	if !errors.Is(err, catalog.ErrNetwork) || errors.Is(err, catalog.ErrTimeout) {
		t.Errorf("expected a non-timeout network error, got %v", err)
	}
}

func TestClient_FetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})

	_, err := c.Fetch(context.Background(), ResourceDeviceMain, server.URL+"/device/main.json")
	if !errors.Is(err, catalog.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !errors.Is(err, catalog.ErrNetwork) {
		t.Errorf("expected timeout to also match ErrNetwork")
	}
}

func TestClient_FetchDeviceEmptyKey(t *testing.T) {
	c := NewClient(DefaultConfig())
	if _, err := c.FetchDevice(context.Background(), ""); !errors.Is(err, catalog.ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestMockClient(t *testing.T) {
	m := NewMockClient()

	data, err := m.Fetch(context.Background(), ResourceDeviceMain, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := catalog.DecodeDevices(ResourceDeviceMain, data)
	if err != nil || len(res.Issues) != 0 {
		t.Fatalf("sample devices should decode cleanly: %v %v", err, res.Issues)
	}
	if m.Calls(ResourceDeviceMain) != 1 {
		t.Errorf("expected 1 call, got %d", m.Calls(ResourceDeviceMain))
	}

	boom := errors.New("boom")
	m.SetError(ResourceFirmwareMain, boom)
	if _, err := m.Fetch(context.Background(), ResourceFirmwareMain, ""); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}

	m.SetDelay(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Fetch(ctx, ResourceDeviceIndex, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
