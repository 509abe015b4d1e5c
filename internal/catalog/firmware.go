package catalog

import (
	"sort"

	"github.com/clean-dependency-project/peardb/internal/version"
)

// FirmwareRecord is one entry in the firmware catalog.
type FirmwareRecord struct {
	OSStr        string   `json:"osStr"`
	Version      string   `json:"version"`
	Key          string   `json:"key"`
	Build        string   `json:"build,omitempty"`
	Released     string   `json:"released,omitempty"`
	DeviceMap    []string `json:"deviceMap,omitempty"`
	ReferenceURL string   `json:"appledburl,omitempty"`
	Beta         bool     `json:"beta,omitempty"`
	RC           bool     `json:"rc,omitempty"`
	Internal     bool     `json:"internal,omitempty"`
}

// DisplayName combines the OS family and version, e.g. "iOS 17.4".
func (f FirmwareRecord) DisplayName() string {
	if f.OSStr == "" {
		return f.Version
	}
	return f.OSStr + " " + f.Version
}

// Group is the OS family label.
func (f FirmwareRecord) Group() string {
	return f.OSStr
}

// AppliesTo reports whether the build lists the device by key or by any of its identifiers.
func (f FirmwareRecord) AppliesTo(d DeviceRecord) bool {
	for _, ref := range f.DeviceMap {
		if d.Matches(ref) {
			return true
		}
	}
	return false
}

// FirmwareForDevice returns the firmware that applies to the device, newest first.
// Ordering is by version, then by build number.
func FirmwareForDevice(firmware []FirmwareRecord, d DeviceRecord) []FirmwareRecord {
	var out []FirmwareRecord
	for _, f := range firmware {
		if f.AppliesTo(d) {
			out = append(out, f)
		}
	}
	SortFirmware(out)
	return out
}

// SortFirmware orders firmware newest first in place. Entries without a build
// sort after entries with one when versions tie.
func SortFirmware(firmware []FirmwareRecord) {
	sort.SliceStable(firmware, func(i, j int) bool {
		a, b := firmware[i], firmware[j]
		if c := version.Compare(a.Version, b.Version); c != 0 {
			return c > 0
		}
		if a.Build == "" || b.Build == "" {
			return a.Build != "" && b.Build == ""
		}
		return version.CompareBuilds(a.Build, b.Build) > 0
	})
}
