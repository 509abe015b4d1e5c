package storage

import (
	"fmt"

	"gorm.io/gorm"
)

// Op is the kind of hardware change
type Op string

const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// Change describes one hardware mutation. For deletes only Hardware.ID is set.
type Change struct {
	Op       Op       `json:"op"`
	Hardware Hardware `json:"hardware"`
}

// SyncHook receives local hardware changes. The sync mechanism behind it is
// opaque to the store; remote changes come back through ApplyMerge.
type SyncHook interface {
	Push(change Change) error
}

// SyncHookFunc adapts a function to SyncHook
type SyncHookFunc func(change Change) error

// Push calls f(change)
func (f SyncHookFunc) Push(change Change) error {
	return f(change)
}

// changed forwards a local change to the sync hook and notifies subscribers.
// Hook failures are logged; the local write has already committed.
func (d *DB) changed(change Change) {
	if d.hook != nil {
		if err := d.hook.Push(change); err != nil {
			d.logger.Warn("sync hook failed", "op", change.Op, "id", change.Hardware.ID, "error", err)
		}
	}
	d.notify()
}

// ApplyMerge applies changes received from the sync mechanism in one
// transaction and then notifies subscribers. Merged changes are not pushed
// back to the sync hook.
func (d *DB) ApplyMerge(changes []Change) error {
	if len(changes) == 0 {
		return nil
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		for i, c := range changes {
			if c.Hardware.ID == "" {
				return fmt.Errorf("change %d: %w", i, ErrEmptyID)
			}
			switch c.Op {
			case OpUpsert:
				if c.Hardware.DeviceName == "" {
					return fmt.Errorf("change %d: %w", i, ErrEmptyDeviceName)
				}
				h := c.Hardware
				if h.Main {
					if err := clearMain(tx, h.ID); err != nil {
						return err
					}
				}
				if err := tx.Save(&h).Error; err != nil {
					return fmt.Errorf("change %d: %w", i, err)
				}
			case OpDelete:
				if err := tx.Where("id = ?", c.Hardware.ID).Delete(&Hardware{}).Error; err != nil {
					return fmt.Errorf("change %d: %w", i, err)
				}
			default:
				return fmt.Errorf("change %d: unknown op %q", i, c.Op)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to apply merge: %w", err)
	}

	d.logger.Info("merged remote hardware changes", "changes", len(changes))
	d.notify()
	return nil
}
