package exchange

import (
	"errors"
	"strings"

	"github.com/meeseeks/nuntius/pkg/model"
	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/blake2b"
)

const fingerprintPrefix = "nun1"

var ErrInvalidMnemonic = errors.New("exchange: invalid mnemonic")

// Fingerprint returns a short printable identifier for a public key,
// suitable for out-of-band comparison.
func Fingerprint(pub model.Key) string {
	h := blake2b.Sum256(pub[:])
	return fingerprintPrefix + base58.Encode(h[:])
}

func (r *Room) Fingerprint() string {
	return Fingerprint(r.publicKey)
}

// Mnemonic encodes the secret key as 24 BIP-39 words.
func (r *Room) Mnemonic() (string, error) {
	return bip39.NewMnemonic(r.secretKey[:])
}

// FromMnemonic restores a Room whose secret key was exported with
// Mnemonic. Known contacts are not part of the backup.
func FromMnemonic(name, mnemonic string) (*Room, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	entropy, err := bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return nil, ErrInvalidMnemonic
	}
	secret, err := model.KeyFromBytes(entropy)
	if err != nil {
		return nil, ErrInvalidMnemonic
	}
	public, err := publicFromSecret(secret)
	if err != nil {
		return nil, ErrInvalidMnemonic
	}
	return FromValues("", name, "", 0, secret, public, nil)
}
