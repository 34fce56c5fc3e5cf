package exchange

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/meeseeks/nuntius/pkg/model"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
)

const NonceSize = chacha20poly1305.NonceSizeX

var (
	ErrDecryptionFailed  = errors.New("exchange: decryption failed")
	ErrMalformedEnvelope = errors.New("exchange: malformed envelope")
	ErrKeyMismatch       = errors.New("exchange: public key does not match secret key")
	ErrInvalidPublicKey  = errors.New("exchange: invalid public key")
	ErrInvalidUTF8       = errors.New("exchange: plaintext is not valid UTF-8")
	ErrEncryptionFailed  = errors.New("exchange: encryption failed")
	errKeyGeneration     = errors.New("exchange: key generation failed")
)

// publicFromSecret returns the X25519 image of secret.
func publicFromSecret(secret model.Key) (model.Key, error) {
	pub, err := curve25519.X25519(secret[:], curve25519.Basepoint)
	if err != nil {
		return model.Key{}, err
	}
	return model.KeyFromBytes(pub)
}

func generateKeypair() (secret, public model.Key, err error) {
	if _, err = io.ReadFull(rand.Reader, secret[:]); err != nil {
		return model.Key{}, model.Key{}, fmt.Errorf("%w: %v", errKeyGeneration, err)
	}
	public, err = publicFromSecret(secret)
	if err != nil {
		return model.Key{}, model.Key{}, fmt.Errorf("%w: %v", errKeyGeneration, err)
	}
	return secret, public, nil
}

// pairKey is the crypto_box_curve25519xchacha20poly1305 precomputation:
// HChaCha20 over the X25519 shared point with a zero nonce.
func pairKey(secret, peer model.Key) ([]byte, error) {
	shared, err := curve25519.X25519(secret[:], peer[:])
	if err != nil {
		// low-order peer point
		return nil, ErrInvalidPublicKey
	}

	var zero [16]byte
	return chacha20.HChaCha20(shared, zero[:])
}

// newPairBox derives the symmetric cipher shared by secret's owner and
// peer. It is never cached.
func newPairBox(secret, peer model.Key) (cipher.AEAD, error) {
	key, err := pairKey(secret, peer)
	if err != nil {
		return nil, err
	}
	return chacha20poly1305.NewX(key)
}

func randomNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}
