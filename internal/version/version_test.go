package version

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		want    string
		wantErr bool
	}{
		{name: "major minor", label: "17.4", want: "17.4.0"},
		{name: "full", label: "16.7.5", want: "16.7.5"},
		{name: "beta suffix", label: "17.4 beta 2", want: "17.4.0-beta.2"},
		{name: "rc suffix", label: "16.0 RC", want: "16.0.0-rc"},
		{name: "empty", label: "", wantErr: true},
		{name: "not a version", label: "Rhapsody", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.label)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.label)
				}
				if !errors.Is(err, ErrInvalidVersion) {
					t.Errorf("expected ErrInvalidVersion, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.String())
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"17.4", "17.3.1", 1},
		{"17.4", "17.4.0", 0},
		{"17.4 beta 2", "17.4", -1},
		{"17.4 beta 2", "17.4 beta 10", -1},
		{"17.4 RC", "17.4 beta 3", 1},
		{"1.0", "Rhapsody", 1},
		{"Rhapsody", "1.0", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompareBuilds(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"21E236", "21E5", 1},
		{"21E5", "21E236", -1},
		{"21E236", "21E236", 0},
		{"21F79", "21E236", 1},
		{"20A362", "21A329", -1},
		{"21A5248v", "21A5248", 1},
		{"007", "7", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			if got := CompareBuilds(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareBuilds(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestLatest(t *testing.T) {
	latest, err := Latest([]string{"16.7.5", "17.4 beta 1", "17.3.1", "17.4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != "17.4" {
		t.Errorf("expected 17.4, got %s", latest)
	}

	if _, err := Latest(nil); !errors.Is(err, ErrNoVersionsProvided) {
		t.Errorf("expected ErrNoVersionsProvided, got %v", err)
	}
}
