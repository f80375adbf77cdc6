// Package cryptox implements the ciphers behind the local authorization
// state file.
//
// Two constructions exist:
//
//   - The legacy stream construction: a SHA-256 key derived from the
//     application salt and the username, a random 16-byte IV prepended to
//     the plaintext, and a repeating-key XOR keystream. This matches the
//     state files written by older releases. It obfuscates the token
//     against casual inspection but is not authenticated and must not be
//     treated as strong confidentiality.
//   - The sealed construction: an argon2id-derived key with AES-GCM.
//     Tampering fails decryption, which callers treat as "no cached
//     state".
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/digitalchief/clientauth/internal/common"
	"golang.org/x/crypto/argon2"
)

const streamIVSize = 16

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// DeriveStreamKey derives the legacy per-username key:
// SHA-256(salt ":" username).
func DeriveStreamKey(salt, username string) []byte {
	sum := sha256.Sum256([]byte(salt + ":" + username))
	return sum[:]
}

// DeriveSealKey derives a 32-byte AES key from the application salt and
// username using argon2id. Unlike DeriveStreamKey it carries a work
// factor, so offline key guessing is slow.
func DeriveSealKey(salt, username string) []byte {
	return argon2.IDKey([]byte(username), []byte(salt), 1, 64*1024, 4, 32)
}

func xorKeystream(key, data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out
}

// StreamEncrypt applies the legacy construction and returns URL-safe
// base64 of IV||plaintext XORed with the repeating key.
func StreamEncrypt(key, plaintext []byte) string {
	iv := common.GenerateRandByteArray(streamIVSize)
	combined := make([]byte, 0, len(iv)+len(plaintext))
	combined = append(combined, iv...)
	combined = append(combined, plaintext...)
	return base64.URLEncoding.EncodeToString(xorKeystream(key, combined))
}

// StreamDecrypt reverses StreamEncrypt, discarding the IV prefix.
func StreamDecrypt(key []byte, token string) ([]byte, error) {
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(data) < streamIVSize {
		return nil, ErrCiphertextTooShort
	}
	return xorKeystream(key, data)[streamIVSize:], nil
}

// SealEncrypt encrypts plaintext with AES-GCM and returns URL-safe base64
// of nonce||ciphertext. The key must be 16, 24 or 32 bytes.
func SealEncrypt(key, plaintext []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())
	sealed := aesgcm.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// SealDecrypt reverses SealEncrypt. Any tampering with the stored blob
// surfaces as a decryption error.
func SealDecrypt(key []byte, token string) ([]byte, error) {
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(data) < aesgcm.NonceSize() {
		return nil, ErrCiphertextTooShort
	}

	nonce, ciphertext := data[:aesgcm.NonceSize()], data[aesgcm.NonceSize():]
	return aesgcm.Open(nil, nonce, ciphertext, nil)
}
