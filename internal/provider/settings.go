package provider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sydlexius/wantsync/internal/encryption"
)

// SettingsService manages provider access tokens using the settings
// key-value table. Tokens are stored encrypted.
type SettingsService struct {
	db        *sql.DB
	encryptor *encryption.Encryptor
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(db *sql.DB, encryptor *encryption.Encryptor) *SettingsService {
	return &SettingsService{db: db, encryptor: encryptor}
}

// apiKeySettingKey returns the settings table key for a provider's token.
func apiKeySettingKey(name ProviderName) string {
	return fmt.Sprintf("provider.%s.api_key", name)
}

// ctxKeyOverride is the context key for per-run token overrides.
type ctxKeyOverride struct{}

// WithAPIKeyOverride returns a child context that overrides the stored token
// for the named provider. A token given on the command line or in the
// environment is injected this way so it is used without being persisted.
func WithAPIKeyOverride(ctx context.Context, name ProviderName, key string) context.Context {
	parentOverrides, _ := ctx.Value(ctxKeyOverride{}).(map[ProviderName]string)

	// Always create a fresh map to avoid mutating any map stored in a parent context.
	overrides := make(map[ProviderName]string, len(parentOverrides)+1)
	for k, v := range parentOverrides {
		overrides[k] = v
	}
	overrides[name] = key
	return context.WithValue(ctx, ctxKeyOverride{}, overrides)
}

// GetAPIKey retrieves and decrypts the token for a provider.
// Returns empty string if no token is configured.
func (s *SettingsService) GetAPIKey(ctx context.Context, name ProviderName) (string, error) {
	if overrides, ok := ctx.Value(ctxKeyOverride{}).(map[ProviderName]string); ok {
		if v, found := overrides[name]; found {
			return v, nil
		}
	}
	if s == nil || s.db == nil {
		return "", nil
	}

	key := apiKeySettingKey(name)
	var encrypted string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token for %s: %w", name, err)
	}
	plaintext, err := s.encryptor.Decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypting token for %s: %w", name, err)
	}
	return plaintext, nil
}

// SetAPIKey encrypts and stores the token for a provider.
func (s *SettingsService) SetAPIKey(ctx context.Context, name ProviderName, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("empty token for %s", name)
	}
	encrypted, err := s.encryptor.Encrypt(apiKey)
	if err != nil {
		return fmt.Errorf("encrypting token for %s: %w", name, err)
	}
	key := apiKeySettingKey(name)
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = datetime('now')",
		key, encrypted, encrypted,
	); err != nil {
		return fmt.Errorf("storing token for %s: %w", name, err)
	}
	return nil
}

// DeleteAPIKey removes the stored token for a provider.
func (s *SettingsService) DeleteAPIKey(ctx context.Context, name ProviderName) error {
	key := apiKeySettingKey(name)
	if _, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting token for %s: %w", name, err)
	}
	return nil
}

// HasAPIKey checks whether a token is stored for a provider.
func (s *SettingsService) HasAPIKey(ctx context.Context, name ProviderName) (bool, error) {
	key := apiKeySettingKey(name)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM settings WHERE key = ?", key).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking token for %s: %w", name, err)
	}
	return count > 0, nil
}
