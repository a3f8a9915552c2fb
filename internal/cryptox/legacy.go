package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

// Legacy format: "Salted__" || salt(8) || AES-256-CBC(PKCS#7), with key and IV
// from OpenSSL's EVP_BytesToKey(MD5) over email+historicalSalt. Textual data
// carries it base64 encoded. It is not authenticated; the only checks are the
// magic header, the block layout and the padding.

const (
	legacyMagic    = "Salted__"
	legacySaltSize = 8
	legacyHeader   = len(legacyMagic) + legacySaltSize
)

// LegacyDecrypt decrypts data written by the pre-GCM client. data may be the
// raw binary form or its base64 text.
func LegacyDecrypt(data []byte, email, historicalSalt string) ([]byte, error) {
	raw := data
	if !bytes.HasPrefix(raw, []byte(legacyMagic)) {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("%w: legacy: not base64", common.ErrAuthenticationFailure)
		}
		raw = decoded
	}

	if !bytes.HasPrefix(raw, []byte(legacyMagic)) {
		return nil, fmt.Errorf("%w: legacy: missing header", common.ErrAuthenticationFailure)
	}
	body := raw[legacyHeader:]
	if len(body) == 0 || len(body)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: legacy: bad length", common.ErrAuthenticationFailure)
	}

	key, iv := evpBytesToKey([]byte(email+historicalSalt), raw[len(legacyMagic):legacyHeader], 32, aes.BlockSize)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, body)

	plaintext, ok := pkcs7Unpad(out)
	if !ok {
		common.WipeByteArray(out)
		return nil, fmt.Errorf("%w: legacy: bad padding", common.ErrAuthenticationFailure)
	}
	return plaintext, nil
}

// LegacyEncrypt produces base64 legacy ciphertext. Nothing writes this format
// anymore; it exists for fixtures and compatibility tests.
func LegacyEncrypt(plaintext []byte, email, historicalSalt string) (string, error) {
	salt := make([]byte, legacySaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key, iv := evpBytesToKey([]byte(email+historicalSalt), salt, 32, aes.BlockSize)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, legacyHeader+len(padded))
	copy(out, legacyMagic)
	copy(out[len(legacyMagic):], salt)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[legacyHeader:], padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

func evpBytesToKey(pass, salt []byte, keyLen, ivLen int) (key, iv []byte) {
	var out, prev []byte
	for len(out) < keyLen+ivLen {
		h := md5.New()
		h.Write(prev)
		h.Write(pass)
		h.Write(salt)
		prev = h.Sum(nil)
		out = append(out, prev...)
	}
	return out[:keyLen], out[keyLen : keyLen+ivLen]
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append(make([]byte, 0, len(b)+n), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte) ([]byte, bool) {
	if len(b) == 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, false
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
