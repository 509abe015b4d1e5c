package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clean-dependency-project/peardb/internal/catalog"
)

// Hardware is a unit of hardware the user owns
type Hardware struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	// What it is
	DeviceName string `gorm:"not null;index" json:"device_name"`
	DeviceKey  string `gorm:"index" json:"device_key,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Type       string `gorm:"index" json:"type,omitempty"`
	Chip       string `json:"chip,omitempty"`
	Board      string `json:"board,omitempty"`
	Serial     string `json:"serial,omitempty"`

	// What it runs
	OSFamily  string `json:"os_family,omitempty"`
	OSVersion string `json:"os_version,omitempty"`
	Build     string `json:"build,omitempty"`

	Note string `gorm:"type:text" json:"note,omitempty"`
	Main bool   `gorm:"column:is_main;not null;default:false" json:"main"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default table name
func (Hardware) TableName() string {
	return "hardware"
}

// NewHardwareFromCatalog copies the fields a hardware entry takes from the
// catalog. fw may be nil when no firmware was chosen.
func NewHardwareFromCatalog(d catalog.DeviceRecord, fw *catalog.FirmwareRecord) Hardware {
	h := Hardware{
		DeviceName: d.Name,
		DeviceKey:  d.Key,
		Identifier: d.PrimaryIdentifier(),
		Type:       string(d.Category),
		Chip:       d.SoC.String(),
		Board:      strings.Join(d.Board, catalog.Separator),
	}
	if fw != nil {
		h.OSFamily = fw.OSStr
		h.OSVersion = fw.Version
		h.Build = fw.Build
	}
	return h
}

// CreateHardware inserts a new entry. An empty ID is assigned a random UUID.
// A new main entry clears the flag on every other entry.
func (d *DB) CreateHardware(h *Hardware) error {
	if h == nil {
		return ErrNilHardware
	}
	if strings.TrimSpace(h.DeviceName) == "" {
		return ErrEmptyDeviceName
	}
	if h.ID == "" {
		h.ID = uuid.New().String()
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if h.Main {
			if err := clearMain(tx, h.ID); err != nil {
				return err
			}
		}
		return tx.Create(h).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create hardware: %w", err)
	}

	d.changed(Change{Op: OpUpsert, Hardware: *h})
	return nil
}

// GetHardware retrieves an entry by ID
func (d *DB) GetHardware(id string) (*Hardware, error) {
	var h Hardware
	err := d.db.Where("id = ?", id).First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hardware %s: %w", id, err)
	}
	return &h, nil
}

// MainHardware returns the entry flagged as the user's main device
func (d *DB) MainHardware() (*Hardware, error) {
	var h Hardware
	err := d.db.Where("is_main = ?", true).First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get main hardware: %w", err)
	}
	return &h, nil
}

// ListHardware returns every entry, the main device first and the rest by name
func (d *DB) ListHardware() ([]Hardware, error) {
	var entries []Hardware
	if err := d.db.Order("is_main DESC").Order("device_name ASC").Order("created_at ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list hardware: %w", err)
	}
	return entries, nil
}

// UpdateHardware replaces every field of an existing entry
func (d *DB) UpdateHardware(h *Hardware) error {
	if h == nil {
		return ErrNilHardware
	}
	if h.ID == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(h.DeviceName) == "" {
		return ErrEmptyDeviceName
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		var existing Hardware
		if err := tx.Where("id = ?", h.ID).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if h.Main {
			if err := clearMain(tx, h.ID); err != nil {
				return err
			}
		}
		h.CreatedAt = existing.CreatedAt
		return tx.Save(h).Error
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update hardware %s: %w", h.ID, err)
	}

	d.changed(Change{Op: OpUpsert, Hardware: *h})
	return nil
}

// DeleteHardware removes an entry by ID
func (d *DB) DeleteHardware(id string) error {
	result := d.db.Where("id = ?", id).Delete(&Hardware{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete hardware %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	d.changed(Change{Op: OpDelete, Hardware: Hardware{ID: id}})
	return nil
}

// ExportHardwareJSON exports every entry as JSON bytes.
func (d *DB) ExportHardwareJSON() ([]byte, error) {
	entries, err := d.ListHardware()
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal hardware to JSON: %w", err)
	}

	return data, nil
}

func clearMain(tx *gorm.DB, exceptID string) error {
	return tx.Model(&Hardware{}).Where("is_main = ? AND id <> ?", true, exceptID).Update("is_main", false).Error
}
