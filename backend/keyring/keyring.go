// Package keyring implements a KeyValueStore on the operating system keyring
// (macOS Keychain, Windows Credential Manager, or Linux Secret Service).
// Keyrings limit secret size, so this backend suits small stores only.
package keyring

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gokeyring "github.com/zalando/go-keyring"
	"listkeep/backend"
)

// DefaultService is the keyring service name used when none is configured.
const DefaultService = "listkeep"

// ErrKeyringNotAvailable is returned when no system keyring can be reached,
// e.g. on a headless machine without D-Bus/Secret Service.
var ErrKeyringNotAvailable = errors.New("system keyring not available")

func init() {
	backend.Register("keyring", func(opts backend.Options) (backend.KeyValueStore, error) {
		return New(opts.KeyringService), nil
	})
}

// Backend stores each key as a secret of the configured service.
type Backend struct {
	service string
}

// New creates a keyring backend for service. An empty service uses DefaultService.
func New(service string) *Backend {
	if strings.TrimSpace(service) == "" {
		service = DefaultService
	}
	return &Backend{service: service}
}

// Close is a no-op; the keyring needs no connection management.
func (b *Backend) Close() error {
	return nil
}

// Get returns the secret stored for key.
func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	value, err := gokeyring.Get(b.service, key)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, wrapError(err)
	}
	return value, true, nil
}

// Set replaces the secret stored for key.
func (b *Backend) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := gokeyring.Set(b.service, key, value); err != nil {
		return wrapError(err)
	}
	return nil
}

// wrapError maps errors that indicate a missing keyring service to ErrKeyringNotAvailable.
func wrapError(err error) error {
	if errors.Is(err, gokeyring.ErrSetDataTooBig) {
		return fmt.Errorf("store too large for keyring: %w", err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "dbus") || strings.Contains(msg, "secret service") ||
		strings.Contains(msg, "org.freedesktop") || strings.Contains(msg, "not supported") {
		return fmt.Errorf("%w: %v", ErrKeyringNotAvailable, err)
	}
	return err
}

// Verify interface compliance at compile time
var _ backend.KeyValueStore = (*Backend)(nil)
