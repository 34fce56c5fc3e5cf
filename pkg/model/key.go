package model

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
)

const KeySize = 32

var ErrInvalidKey = errors.New("model: key must decode to exactly 32 bytes")

// Key is a 32-byte Curve25519 key. It is used for both public and secret
// halves; JSON carries it as a lowercase hex string.
type Key [KeySize]byte

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

func (k Key) Bytes() []byte {
	return k[:]
}

func (k Key) IsZero() bool {
	return k == Key{}
}

// KeyFromBytes copies b into a Key. b must be exactly 32 bytes long.
func KeyFromBytes(b []byte) (Key, error) {
	var k Key
	if len(b) != KeySize {
		return k, fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// ParseKey decodes a hex string into a Key.
func ParseKey(s string) (Key, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return KeyFromBytes(b)
}

func (k Key) MarshalText() ([]byte, error) {
	out := make([]byte, hex.EncodedLen(KeySize))
	hex.Encode(out, k[:])
	return out, nil
}

func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// SortKeys orders keys by their raw bytes.
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
}
