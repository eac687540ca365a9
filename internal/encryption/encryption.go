package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// pbkdf2Iterations is the OWASP-recommended iteration count for PBKDF2-SHA256.
const pbkdf2Iterations = 600_000

// SaltSize is the length in bytes of a passphrase salt.
const SaltSize = 16

// Encryptor provides AES-256-GCM encryption and decryption.
type Encryptor struct {
	gcm cipher.AEAD
}

// NewEncryptor creates an Encryptor from a 32-byte key (base64-encoded or raw).
// If key is empty, it generates a random key and returns it encoded.
func NewEncryptor(key string) (*Encryptor, string, error) {
	var keyBytes []byte

	if key == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, "", fmt.Errorf("generating encryption key: %w", err)
		}
		key = base64.StdEncoding.EncodeToString(keyBytes)
	} else {
		decoded, err := base64.StdEncoding.DecodeString(key)
		if err != nil {
			// Try using the key as raw bytes (for testing)
			if len(key) == 32 {
				keyBytes = []byte(key)
			} else {
				return nil, "", fmt.Errorf("decoding encryption key: %w", err)
			}
		} else {
			keyBytes = decoded
		}
	}

	if len(keyBytes) != 32 {
		return nil, "", fmt.Errorf("encryption key must be 32 bytes, got %d", len(keyBytes))
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, "", fmt.Errorf("creating AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, "", fmt.Errorf("creating GCM: %w", err)
	}

	return &Encryptor{gcm: gcm}, key, nil
}

// NewSalt returns a random salt for DeriveKey.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, nil
}

// DeriveKey stretches a passphrase into a base64-encoded 32-byte key that
// NewEncryptor accepts. The same passphrase and salt always yield the same key.
func DeriveKey(passphrase string, salt []byte) (string, error) {
	if passphrase == "" {
		return "", errors.New("empty passphrase")
	}
	if len(salt) < SaltSize {
		return "", fmt.Errorf("salt must be at least %d bytes, got %d", SaltSize, len(salt))
	}
	key := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, 32, sha256.New)
	return base64.StdEncoding.EncodeToString(key), nil
}

// Encrypt encrypts plaintext and returns a base64-encoded ciphertext.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	ciphertext := e.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a base64-encoded ciphertext and returns the plaintext.
func (e *Encryptor) Decrypt(encoded string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}

	nonceSize := e.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := e.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypting: %w", err)
	}

	return string(plaintext), nil
}
