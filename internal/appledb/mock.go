package appledb

import (
	"context"
	"sync"
	"time"

	"github.com/clean-dependency-project/peardb/internal/catalog"
)

// MockClient implements Client from in-memory documents, keyed by resource name.
// Device details are keyed by device key.
type MockClient struct {
	mu        sync.Mutex
	documents map[string][]byte
	devices   map[string][]byte
	errs      map[string]error
	delay     time.Duration
	calls     map[string]int
}

// NewMockClient creates a mock client seeded with a small sample catalog.
func NewMockClient() *MockClient {
	return &MockClient{
		documents: map[string][]byte{
			ResourceDeviceMain:    []byte(mockDevices),
			ResourceDeviceIndex:   []byte(`["iPhone15,4","iPad16,3","Mac15,3","Watch7,1"]`),
			ResourceFirmwareMain:  []byte(mockFirmware),
			ResourceFirmwareIndex: []byte(`["iOS-21E219","iOS-21E236","iOS-21F79"]`),
		},
		devices: map[string][]byte{
			"iPhone15,4": []byte(`{"name":"iPhone 15","key":"iPhone15,4","identifier":"iPhone15,4","type":"iPhone","soc":"A16","cpid":"0x8120","released":"2023-09-22"}`),
		},
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

// SetDocument replaces the body served for a resource.
func (m *MockClient) SetDocument(resource string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[resource] = data
}

// SetError makes fetches of a resource fail with err. A nil err clears it.
func (m *MockClient) SetError(resource string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, resource)
		return
	}
	m.errs[resource] = err
}

// SetDelay holds every fetch for d or until its context is done.
func (m *MockClient) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns how many times a resource was fetched.
func (m *MockClient) Calls(resource string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[resource]
}

func (m *MockClient) Fetch(ctx context.Context, resource, rawURL string) ([]byte, error) {
	m.mu.Lock()
	m.calls[resource]++
	delay := m.delay
	err := m.errs[resource]
	data, ok := m.documents[resource]
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, &catalog.NetworkError{Resource: resource, URL: rawURL, Timeout: ctx.Err() == context.DeadlineExceeded, Err: ctx.Err()}
		case <-timer.C:
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &catalog.NetworkError{Resource: resource, URL: rawURL, StatusCode: 404}
	}
	return append([]byte(nil), data...), nil
}

func (m *MockClient) FetchDevice(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	data, ok := m.devices[key]
	m.mu.Unlock()
	if !ok {
		return nil, &catalog.NetworkError{Resource: "device/" + key, StatusCode: 404}
	}
	return append([]byte(nil), data...), nil
}

const mockDevices = `[
	{"name":"iPhone 15","key":"iPhone15,4","identifier":"iPhone15,4","type":"iPhone","soc":"A16","cpid":"0x8120","released":"2023-09-22",
	 "info":[{"type":"Storage","Storage":["128 GB","256 GB","512 GB"],"RAM":"6 GB"}]},
	{"name":"iPad Pro (M4)","key":"iPad16,3","identifier":["iPad16,3","iPad16,4"],"type":"iPad Pro","soc":"M4","released":"2024-05-15"},
	{"name":"MacBook Pro (14-inch, M3 Pro, Nov 2023)","key":"Mac15,3","identifier":"Mac15,3","type":"MacBook Pro","soc":["M3 Pro","M3 Max"],"arch":"arm64"},
	{"name":"Apple Watch Series 9","key":"Watch7,1","identifier":["Watch7,1","Watch7,2"],"type":"Apple Watch","soc":"S9"}
]`

const mockFirmware = `[
	{"osStr":"iOS","version":"17.4","key":"iOS-21E219","build":"21E219","released":"2024-03-05","deviceMap":["iPhone15,4"]},
	{"osStr":"iOS","version":"17.4.1","key":"iOS-21E236","build":"21E236","released":"2024-03-21","deviceMap":["iPhone15,4"]},
	{"osStr":"iPadOS","version":"17.5","key":"iPadOS-21F79","build":"21F79","released":"2024-05-13","deviceMap":["iPad16,3","iPad16,4"]},
	{"osStr":"macOS","version":"14.4","key":"macOS-23E214","build":"23E214","deviceMap":["Mac15,3"]}
]`
