package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDecodeDevices_ScalarAndArrayFields(t *testing.T) {
	data := []byte(`[
		{"name": "iPhone 15", "key": "iPhone15,4", "identifier": "iPhone15,4", "type": "iPhone",
		 "soc": "A16", "cpid": ["0x8120"], "released": "2023-09-22", "arch": "arm64e",
		 "info": [{"type": "Storage", "Storage": ["128 GB", "256 GB"], "RAM": "6 GB"}]},
		{"name": "iPad Pro (M4)", "key": "iPad16,3", "identifier": ["iPad16,3", "iPad16,4"], "type": "iPad Pro",
		 "soc": ["M4", "M4 Pro"]}
	]`)

	res, err := DecodeDevices("device_main", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", res.Issues)
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records))
	}

	phone := res.Records[0]
	if phone.Category != CategoryiPhone {
		t.Errorf("expected category iPhone, got %s", phone.Category)
	}
	if chip, ok := phone.Chip(); !ok || chip != "A16" {
		t.Errorf("expected chip A16, got %q (ok=%v)", chip, ok)
	}
	if id, ok := phone.ChipID(); !ok || id != "0x8120" {
		t.Errorf("expected chip id 0x8120, got %q", id)
	}
	if phone.PrimaryIdentifier() != "iPhone15,4" {
		t.Errorf("expected identifier iPhone15,4, got %q", phone.PrimaryIdentifier())
	}
	if len(phone.Info) != 1 || phone.Info[0].Storage.String() != "128 GB, 256 GB" || phone.Info[0].RAM.String() != "6 GB" {
		t.Errorf("unexpected memory variants: %+v", phone.Info)
	}

	pad := res.Records[1]
	if chip, _ := pad.Chip(); chip != "M4, M4 Pro" {
		t.Errorf("expected collapsed chip, got %q", chip)
	}
	if _, ok := pad.ReleaseDate(); ok {
		t.Error("expected release date to be absent")
	}
	if !pad.Matches("iPad16,4") || pad.Matches("iPad16,5") {
		t.Error("identifier matching is wrong")
	}
}

func TestDecodeDevices_ElementIsolation(t *testing.T) {
	var elements []string
	for i := 0; i < 10; i++ {
		if i == 3 {
			// missing name
			elements = append(elements, `{"key": "broken", "type": "iPhone"}`)
			continue
		}
		elements = append(elements, fmt.Sprintf(`{"name": "Device %d", "key": "dev%d", "type": "Mac mini"}`, i, i))
	}
	data := []byte("[" + strings.Join(elements, ",") + "]")

	res, err := DecodeDevices("device_main", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 9 {
		t.Fatalf("expected 9 records, got %d", len(res.Records))
	}
	if len(res.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(res.Issues))
	}

	issue := res.Issues[0]
	if issue.Index != 3 || issue.Key != "broken" || issue.Field != "name" {
		t.Errorf("unexpected issue location: index=%d key=%q field=%q", issue.Index, issue.Key, issue.Field)
	}
	if !errors.Is(issue, ErrDecode) {
		t.Error("expected issue to match ErrDecode")
	}
	if !strings.Contains(issue.Snippet(200), `"broken"`) {
		t.Errorf("expected snippet to hold the raw element, got %s", issue.Snippet(200))
	}
	for i, rec := range res.Records {
		if rec.Key == "broken" {
			t.Errorf("record %d should have been skipped", i)
		}
	}
}

func TestDecodeDevices_EnvelopeFailure(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "object", data: `{"devices": []}`},
		{name: "truncated", data: `[{"name": "iPhone"`},
		{name: "empty", data: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := DecodeDevices("device_main", []byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			var derr *DecodeError
			if !errors.As(err, &derr) {
				t.Fatalf("expected *DecodeError, got %T", err)
			}
			if derr.Index != -1 || derr.Document != "device_main" {
				t.Errorf("unexpected error location: %+v", derr)
			}
			if len(res.Records) != 0 {
				t.Errorf("expected no records, got %d", len(res.Records))
			}
		})
	}
}

func TestDecodeDevices_OptionalFieldTolerance(t *testing.T) {
	data := []byte(`[{"name": "Odd", "key": "odd", "type": 7, "soc": {"x": 1}, "cpid": null, "info": "nope"}]`)

	res, err := DecodeDevices("device_main", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("expected 1 record, got %d (issues %v)", len(res.Records), res.Issues)
	}
	rec := res.Records[0]
	if rec.Category != Uncategorized {
		t.Errorf("expected Uncategorized, got %s", rec.Category)
	}
	if _, ok := rec.Chip(); ok {
		t.Error("expected malformed soc to be absent")
	}
	if rec.Info != nil {
		t.Errorf("expected no info, got %+v", rec.Info)
	}
}

func TestDecodeDevices_InfoVariantWithoutType(t *testing.T) {
	data := []byte(`[{"name": "Mac", "key": "mac", "info": [{"type": "Storage"}, {"RAM": "8 GB"}]}]`)

	res, err := DecodeDevices("device_main", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 0 || len(res.Issues) != 1 {
		t.Fatalf("expected the element to be skipped, got %d records and %d issues", len(res.Records), len(res.Issues))
	}
	if res.Issues[0].Field != "info[1].type" {
		t.Errorf("expected field info[1].type, got %q", res.Issues[0].Field)
	}
}

func TestDecodeFirmware(t *testing.T) {
	data := []byte(`[
		{"osStr": "iOS", "version": "17.4", "key": "iOS-21E219", "build": "21E219", "released": "2024-03-05",
		 "deviceMap": ["iPhone15,4", "iPhone16,1"], "appledburl": "https://appledb.dev/firmware/iOS/21E219.html"},
		{"osStr": "iOS", "version": "17.5 beta 1", "key": "iOS-21F5048f", "build": "21F5048f", "beta": true, "deviceMap": "iPhone15,4"},
		{"osStr": "iOS", "key": "missing-version"}
	]`)

	res, err := DecodeFirmware("ios_main", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 2 || len(res.Issues) != 1 {
		t.Fatalf("expected 2 records and 1 issue, got %d and %d", len(res.Records), len(res.Issues))
	}
	if res.Issues[0].Field != "version" || res.Issues[0].Key != "missing-version" {
		t.Errorf("unexpected issue: %v", res.Issues[0])
	}

	first := res.Records[0]
	if first.DisplayName() != "iOS 17.4" || first.Group() != "iOS" {
		t.Errorf("unexpected display %q group %q", first.DisplayName(), first.Group())
	}
	if first.ReferenceURL == "" {
		t.Error("expected reference url")
	}
	if !res.Records[1].Beta || len(res.Records[1].DeviceMap) != 1 {
		t.Errorf("unexpected beta record: %+v", res.Records[1])
	}
}

func TestDecodeDevice(t *testing.T) {
	rec, err := DecodeDevice("device/iPhone15,4", []byte(`{"name": "iPhone 15", "key": "iPhone15,4", "type": "iPhone"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Name != "iPhone 15" {
		t.Errorf("expected iPhone 15, got %q", rec.Name)
	}

	_, err = DecodeDevice("device/x", []byte(`{"key": "x"}`))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestDecodeIndex(t *testing.T) {
	keys, err := DecodeIndex("device_index", []byte(`["iPhone15,4", "iPad16,3"]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 || keys[1] != "iPad16,3" {
		t.Errorf("unexpected keys: %v", keys)
	}

	if _, err := DecodeIndex("device_index", []byte(`{}`)); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestMultiStringCollapse(t *testing.T) {
	tests := []struct {
		name   string
		json   string
		want   string
		wantOK bool
	}{
		{name: "string", json: `"A17 Pro"`, want: "A17 Pro", wantOK: true},
		{name: "array", json: `["A", "B"]`, want: "A, B", wantOK: true},
		{name: "single element array", json: `["A"]`, want: "A", wantOK: true},
		{name: "empty array", json: `[]`},
		{name: "null", json: `null`},
		{name: "empty string", json: `""`},
		{name: "array of empty strings", json: `["", ""]`},
		{name: "empty strings dropped", json: `["A", "", "B"]`, want: "A, B", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m MultiString
			if err := json.Unmarshal([]byte(tt.json), &m); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, ok := m.Collapse()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Collapse() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}

	var m MultiString
	if err := json.Unmarshal([]byte(`42`), &m); err == nil {
		t.Error("expected error for a number")
	}

	d, err := DecodeDevice("device/iPhone15,4.json", []byte(`{"name":"iPhone 15","key":"iPhone15,4","type":"iPhone","soc":"","released":[""]}`))
	if err != nil {
		t.Fatalf("DecodeDevice: %v", err)
	}
	if chip, ok := d.Chip(); ok {
		t.Errorf("expected empty soc to be absent, got %q", chip)
	}
	if released, ok := d.ReleaseDate(); ok {
		t.Errorf("expected empty release date to be absent, got %q", released)
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		raw  string
		want Category
	}{
		{"iPhone", CategoryiPhone},
		{"ipad pro", CategoryiPadPro},
		{"  MacBook Air ", CategoryMacBookAir},
		{"", Uncategorized},
		{"Newton", Uncategorized},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseCategory(tt.raw); got != tt.want {
				t.Errorf("ParseCategory(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}

	if Uncategorized.Known() {
		t.Error("Uncategorized should not be a known category")
	}
	if len(CommonCategories()) != 14 {
		t.Errorf("expected 14 common categories, got %d", len(CommonCategories()))
	}
	cats := Categories()
	for i := 1; i < len(cats); i++ {
		if strings.ToLower(string(cats[i-1])) > strings.ToLower(string(cats[i])) {
			t.Fatalf("categories not sorted at %d: %s > %s", i, cats[i-1], cats[i])
		}
	}
}
