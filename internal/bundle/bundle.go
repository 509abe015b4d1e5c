// Package bundle moves owned hardware between installs as a passphrase
// encrypted, ASCII-armored OpenPGP message.
package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ProtonMail/gopenpgp/v2/crypto"

	"github.com/clean-dependency-project/peardb/internal/storage"
)

// FormatVersion is the bundle layout version written by Seal
const FormatVersion = 1

var (
	ErrEmptyPassphrase    = errors.New("passphrase cannot be empty")
	ErrUnsupportedVersion = errors.New("unsupported bundle version")
	ErrDecrypt            = errors.New("failed to decrypt bundle")
)

// Bundle is the plaintext payload
type Bundle struct {
	Version    int                `json:"version"`
	ExportedAt time.Time          `json:"exported_at"`
	Hardware   []storage.Hardware `json:"hardware"`
}

// HardwareLister lists the entries to export
type HardwareLister interface {
	ListHardware() ([]storage.Hardware, error)
}

// Merger applies imported entries
type Merger interface {
	ApplyMerge(changes []storage.Change) error
}

// Seal encrypts b with the passphrase and returns the armored message.
func Seal(b Bundle, passphrase string) (string, error) {
	if passphrase == "" {
		return "", ErrEmptyPassphrase
	}
	if b.Version == 0 {
		b.Version = FormatVersion
	}

	payload, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("failed to marshal bundle: %w", err)
	}

	message, err := crypto.EncryptMessageWithPassword(crypto.NewPlainMessage(payload), []byte(passphrase))
	if err != nil {
		return "", fmt.Errorf("failed to encrypt bundle: %w", err)
	}

	armored, err := message.GetArmored()
	if err != nil {
		return "", fmt.Errorf("failed to armor bundle: %w", err)
	}
	return armored, nil
}

// Open decrypts an armored bundle. A wrong passphrase returns ErrDecrypt.
func Open(armored, passphrase string) (*Bundle, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	message, err := crypto.NewPGPMessageFromArmored(strings.TrimSpace(armored))
	if err != nil {
		return nil, fmt.Errorf("failed to parse armored bundle: %w", err)
	}

	plain, err := crypto.DecryptMessageWithPassword(message, []byte(passphrase))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	var b Bundle
	if err := json.Unmarshal(plain.GetBinary(), &b); err != nil {
		return nil, fmt.Errorf("failed to parse bundle payload: %w", err)
	}
	if b.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, b.Version)
	}
	return &b, nil
}

// Changes turns the bundle into upserts for the merge path.
func (b Bundle) Changes() []storage.Change {
	changes := make([]storage.Change, 0, len(b.Hardware))
	for _, h := range b.Hardware {
		changes = append(changes, storage.Change{Op: storage.OpUpsert, Hardware: h})
	}
	return changes
}

// Export seals every entry from src.
func Export(src HardwareLister, passphrase string, now time.Time) (string, error) {
	entries, err := src.ListHardware()
	if err != nil {
		return "", err
	}
	return Seal(Bundle{Version: FormatVersion, ExportedAt: now.UTC(), Hardware: entries}, passphrase)
}

// Import opens an armored bundle and merges its entries into dst. It returns
// the number of entries merged.
func Import(dst Merger, armored, passphrase string) (int, error) {
	b, err := Open(armored, passphrase)
	if err != nil {
		return 0, err
	}
	if err := dst.ApplyMerge(b.Changes()); err != nil {
		return 0, err
	}
	return len(b.Hardware), nil
}
