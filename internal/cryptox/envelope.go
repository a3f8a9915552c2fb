package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

const (
	IVSize  = 12
	TagSize = 16
)

// Encrypt seals plaintext with AES-256-GCM under key.
//
// The returned blob is iv(12) || ciphertext || tag(16). A fresh IV is read
// from crypto/rand on every call, so retries never reuse an IV.
func Encrypt(plaintext []byte, key Key) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, IVSize, IVSize+len(plaintext)+TagSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("iv: %w", err)
	}

	return aead.Seal(iv, iv, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt. A wrong key, a truncated blob or
// any flipped bit yields ErrAuthenticationFailure and no plaintext at all.
func Decrypt(blob []byte, key Key) ([]byte, error) {
	if len(blob) < IVSize+TagSize {
		return nil, fmt.Errorf("%w: blob too short (%d bytes)", common.ErrAuthenticationFailure, len(blob))
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, blob[:IVSize], blob[IVSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrAuthenticationFailure, err)
	}
	return plaintext, nil
}

// EncryptString is Encrypt with the blob base64 wrapped for text columns.
func EncryptString(plaintext string, key Key) (string, error) {
	blob, err := Encrypt([]byte(plaintext), key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

// DecryptString reverses EncryptString. Input that is not valid base64 can't
// belong to this scheme and is reported as ErrAuthenticationFailure.
func DecryptString(encoded string, key Key) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: base64: %v", common.ErrAuthenticationFailure, err)
	}
	plaintext, err := Decrypt(blob, key)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func newGCM(key Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
