package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting is one scalar in the settings table
type Setting struct {
	Key       string `gorm:"primaryKey;column:name"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName overrides the default table name
func (Setting) TableName() string {
	return "settings"
}

// Settings is the key-value view of the settings table.
type Settings struct {
	db *gorm.DB
}

// Settings returns the key-value store backed by this database.
func (d *DB) Settings() *Settings {
	return &Settings{db: d.db}
}

// Get returns the value stored under key. ok is false when the key is unset.
func (s *Settings) Get(key string) (value string, ok bool, err error) {
	var setting Setting
	err = s.db.Where("name = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return setting.Value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Settings) Set(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&Setting{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an unset key is not an error.
func (s *Settings) Delete(key string) error {
	if err := s.db.Where("name = ?", key).Delete(&Setting{}).Error; err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}
