package exchange

import (
	"encoding/binary"
	"fmt"

	"github.com/meeseeks/nuntius/pkg/model"
)

// Wire layout, all lengths big-endian:
//
//	sender_public(32) || nonce_len(4) || nonce || ciphertext_len(4) || ciphertext
const (
	lenPrefixSize  = 4
	MinWireSize    = model.KeySize + 2*lenPrefixSize
	maxFieldLength = 1<<32 - 1
)

// MarshalBinary encodes the envelope for transport. The ID is not part of
// the wire form.
func (m *EncryptedMessage) MarshalBinary() ([]byte, error) {
	if uint64(len(m.Nonce)) > maxFieldLength || uint64(len(m.Ciphertext)) > maxFieldLength {
		return nil, fmt.Errorf("%w: field exceeds 32-bit length", ErrMalformedEnvelope)
	}

	out := make([]byte, 0, MinWireSize+len(m.Nonce)+len(m.Ciphertext))
	out = append(out, m.SenderPublic[:]...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(m.Nonce)))
	out = append(out, m.Nonce...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(m.Ciphertext)))
	out = append(out, m.Ciphertext...)
	return out, nil
}

// UnmarshalBinary decodes b. Inputs shorter than MinWireSize, or whose
// declared lengths do not consume exactly the remaining bytes, are
// ErrMalformedEnvelope.
func (m *EncryptedMessage) UnmarshalBinary(b []byte) error {
	if len(b) < MinWireSize {
		return fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedEnvelope, len(b), MinWireSize)
	}

	var sender model.Key
	copy(sender[:], b[:model.KeySize])
	rest := b[model.KeySize:]

	nonceLen := uint64(binary.BigEndian.Uint32(rest))
	rest = rest[lenPrefixSize:]
	if nonceLen+lenPrefixSize > uint64(len(rest)) {
		return fmt.Errorf("%w: nonce length %d overruns input", ErrMalformedEnvelope, nonceLen)
	}
	nonce := rest[:nonceLen]
	rest = rest[nonceLen:]

	ctLen := uint64(binary.BigEndian.Uint32(rest))
	rest = rest[lenPrefixSize:]
	if ctLen != uint64(len(rest)) {
		return fmt.Errorf("%w: ciphertext length %d, %d bytes remain", ErrMalformedEnvelope, ctLen, len(rest))
	}

	m.SenderPublic = sender
	m.Nonce = append([]byte{}, nonce...)
	m.Ciphertext = append([]byte{}, rest...)
	return nil
}

// Encode is MarshalBinary for callers that want a plain function.
func Encode(m *EncryptedMessage) ([]byte, error) {
	return m.MarshalBinary()
}

// Decode parses a wire envelope.
func Decode(b []byte) (*EncryptedMessage, error) {
	var m EncryptedMessage
	if err := m.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return &m, nil
}
