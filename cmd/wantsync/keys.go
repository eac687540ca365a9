package main

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sydlexius/wantsync/internal/config"
	"github.com/sydlexius/wantsync/internal/database"
	"github.com/sydlexius/wantsync/internal/encryption"
	"github.com/sydlexius/wantsync/internal/filesystem"
)

const (
	keyFileName  = "encryption.key"
	saltFileName = "encryption.salt"
)

// resolveEncryptionKey determines the key protecting the stored token.
// Priority: configured key > passphrase (PBKDF2 with a salt file beside the
// database) > key file beside the database > generate new.
func resolveEncryptionKey(cfg *config.Config, logger *slog.Logger) (string, error) {
	if cfg.Encryption.Key != "" {
		return cfg.Encryption.Key, nil
	}

	ephemeral := cfg.Database.Path == database.MemoryPath
	dataDir := filepath.Dir(cfg.Database.Path)

	if cfg.Encryption.Passphrase != "" {
		salt, err := loadSalt(dataDir, ephemeral)
		if err != nil {
			return "", err
		}
		return encryption.DeriveKey(cfg.Encryption.Passphrase, salt)
	}

	keyFile := filepath.Join(dataDir, keyFileName)
	if !ephemeral {
		data, err := os.ReadFile(keyFile) //nolint:gosec // G304: path derived from trusted config
		if err == nil {
			if key := strings.TrimSpace(string(data)); key != "" {
				logger.Debug("loaded encryption key from file", slog.String("path", keyFile))
				return key, nil
			}
		}
	}

	_, key, err := encryption.NewEncryptor("")
	if err != nil {
		return "", fmt.Errorf("generating encryption key: %w", err)
	}
	if ephemeral {
		return key, nil
	}

	wrote, err := filesystem.WriteFileExclusive(keyFile, []byte(key+"\n"), 0o600)
	switch {
	case err != nil:
		logger.Warn("could not save encryption key to file",
			slog.String("path", keyFile), slog.Any("error", err))
	case !wrote:
		data, err := os.ReadFile(keyFile) //nolint:gosec // G304: path derived from trusted config
		if err != nil {
			return "", fmt.Errorf("reading key file: %w", err)
		}
		existing := strings.TrimSpace(string(data))
		if existing == "" {
			return "", fmt.Errorf("key file %s is empty", keyFile)
		}
		return existing, nil
	default:
		logger.Info("generated new encryption key", slog.String("path", keyFile))
	}
	return key, nil
}

// loadSalt reads the passphrase salt, creating it on first use.
func loadSalt(dataDir string, ephemeral bool) ([]byte, error) {
	saltFile := filepath.Join(dataDir, saltFileName)
	if !ephemeral {
		data, err := os.ReadFile(saltFile) //nolint:gosec // G304: path derived from trusted config
		if err == nil {
			salt, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
			if err != nil {
				return nil, fmt.Errorf("decoding salt file %s: %w", saltFile, err)
			}
			return salt, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading salt file: %w", err)
		}
	}

	salt, err := encryption.NewSalt()
	if err != nil {
		return nil, err
	}
	if ephemeral {
		return salt, nil
	}
	wrote, err := filesystem.WriteFileExclusive(saltFile, []byte(base64.StdEncoding.EncodeToString(salt)+"\n"), 0o600)
	if err != nil {
		return nil, fmt.Errorf("writing salt file: %w", err)
	}
	if !wrote {
		return nil, fmt.Errorf("salt file %s appeared while creating it; retry", saltFile)
	}
	return salt, nil
}
