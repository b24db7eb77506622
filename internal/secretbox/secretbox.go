// Package secretbox seals and opens small text blobs with authenticated
// encryption. Sealed blobs are self-contained: a fresh random nonce is
// prepended to the ciphertext and the whole value is encoded as a
// transport-safe string.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrIntegrity signals a blob that failed authentication: wrong key,
// truncation, or tampering. Open never returns partial plaintext.
var ErrIntegrity = errors.New("secretbox: blob failed integrity check")

// Seal encrypts plaintext under a digest of key and returns the sealed blob.
// Each call uses a fresh nonce, so sealing the same plaintext twice yields
// different blobs.
func Seal(plaintext, key string) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a sealed blob produced by Seal with the same key.
func Open(blob, key string) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	raw, err := base64.RawURLEncoding.DecodeString(blob)
	if err != nil {
		return "", ErrIntegrity
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrIntegrity
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrIntegrity
	}
	return string(plaintext), nil
}

func newAEAD(key string) (cipher.AEAD, error) {
	digest := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(digest[:])
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return aead, nil
}
