// Package encryption provides symmetric authenticated encryption with
// AES-256-GCM. It has no notion of identities; callers hold the key.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
)

var (
	ErrAuthenticationFailed = errors.New("encryption: authentication failed")
	ErrEncoding             = errors.New("encryption: plaintext is not valid UTF-8")
	ErrInvalidKey           = errors.New("encryption: key must be 32 bytes")
)

// Key is a 256-bit AES key.
type Key [KeySize]byte

// GenerateKey returns a uniformly random key read from crypto/rand.
func GenerateKey() (Key, error) {
	var k Key
	if _, err := io.ReadFull(rand.Reader, k[:]); err != nil {
		return Key{}, fmt.Errorf("encryption: generating key: %w", err)
	}
	return k, nil
}

// KeyFromBytes copies b into a Key.
func KeyFromBytes(b []byte) (Key, error) {
	var k Key
	if len(b) != KeySize {
		return k, ErrInvalidKey
	}
	copy(k[:], b)
	return k, nil
}

func newGCM(key Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under key with a fresh random 96-bit nonce.
// The returned ciphertext carries the 16-byte tag, so an empty plaintext
// still yields TagSize bytes.
func Encrypt(key Key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption: init cipher: %w", err)
	}

	nonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("encryption: generating nonce: %w", err)
	}

	return gcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Decrypt opens ciphertext. Any alteration of key, nonce or ciphertext
// yields ErrAuthenticationFailed and no plaintext.
func Decrypt(key Key, ciphertext, nonce []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrAuthenticationFailed
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("encryption: init cipher: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// EncryptString is Encrypt over the UTF-8 bytes of s.
func EncryptString(key Key, s string) (ciphertext, nonce []byte, err error) {
	return Encrypt(key, []byte(s))
}

// DecryptString decrypts and decodes the plaintext as UTF-8. A successful
// open followed by invalid UTF-8 returns ErrEncoding.
func DecryptString(key Key, ciphertext, nonce []byte) (string, error) {
	plaintext, err := Decrypt(key, ciphertext, nonce)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", ErrEncoding
	}
	return string(plaintext), nil
}
