package appledb

import (
	"testing"
	"time"
)

func TestDefaultClientFactory_CreateClient(t *testing.T) {
	factory := NewClientFactory()

	tests := []struct {
		name       string
		config     ClientConfig
		wantErr    bool
		wantErrMsg string
		wantMock   bool
	}{
		{name: "appledb provider", config: ClientConfig{Provider: "appledb", Timeout: 5 * time.Second}},
		{name: "empty provider defaults to appledb", config: ClientConfig{}},
		{name: "mock provider", config: ClientConfig{Provider: "mock"}, wantMock: true},
		{name: "unsupported provider", config: ClientConfig{Provider: "ipsw"}, wantErr: true, wantErrMsg: "unsupported provider: ipsw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := factory.CreateClient(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if err.Error() != tt.wantErrMsg {
					t.Errorf("Expected error %q, got %q", tt.wantErrMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client == nil {
				t.Fatal("expected non-nil client")
			}
			if _, ok := client.(*MockClient); ok != tt.wantMock {
				t.Errorf("mock client = %v, want %v", ok, tt.wantMock)
			}
		})
	}
}
