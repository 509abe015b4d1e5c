// Package catalog holds the typed records of the remote hardware and firmware
// catalog and the tolerant decoding rules that build them from JSON.
package catalog

// DeviceRecord is one entry in the device catalog. Records are immutable
// once decoded and are replaced wholesale on refresh.
type DeviceRecord struct {
	Name       string          `json:"name"`
	Key        string          `json:"key"`
	Identifier []string        `json:"identifier,omitempty"`
	Board      []string        `json:"board,omitempty"`
	Model      []string        `json:"model,omitempty"`
	Type       string          `json:"type,omitempty"`
	Category   Category        `json:"category"`
	Arch       string          `json:"arch,omitempty"`
	BDID       string          `json:"bdid,omitempty"`
	SoC        MultiString     `json:"soc,omitempty"`
	CPID       MultiString     `json:"cpid,omitempty"`
	Released   MultiString     `json:"released,omitempty"`
	Info       []MemoryVariant `json:"info,omitempty"`
}

// MemoryVariant is one memory/storage configuration of a device.
type MemoryVariant struct {
	Type    string      `json:"type"`
	Storage MultiString `json:"Storage,omitempty"`
	RAM     MultiString `json:"RAM,omitempty"`
}

// DisplayName is the name consumers list and search.
func (d DeviceRecord) DisplayName() string {
	return d.Name
}

// Group is the filter bucket of the record.
func (d DeviceRecord) Group() string {
	return string(d.Category)
}

// Chip returns the collapsed system-on-chip names.
func (d DeviceRecord) Chip() (string, bool) {
	return d.SoC.Collapse()
}

// ChipID returns the collapsed CPU identifiers.
func (d DeviceRecord) ChipID() (string, bool) {
	return d.CPID.Collapse()
}

// ReleaseDate returns the collapsed release date labels.
func (d DeviceRecord) ReleaseDate() (string, bool) {
	return d.Released.Collapse()
}

// PrimaryIdentifier returns the first hardware identifier, or "" when there is none.
func (d DeviceRecord) PrimaryIdentifier() string {
	if len(d.Identifier) == 0 {
		return ""
	}
	return d.Identifier[0]
}

// Matches reports whether the given device key or identifier names this device.
func (d DeviceRecord) Matches(ref string) bool {
	if ref == d.Key {
		return true
	}
	for _, id := range d.Identifier {
		if id == ref {
			return true
		}
	}
	return false
}
