package exchange

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/meeseeks/nuntius/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestWire_Layout(t *testing.T) {
	msg := &EncryptedMessage{
		SenderPublic: filledKey(0xaa),
		Nonce:        []byte{1, 2, 3},
		Ciphertext:   []byte{9, 8},
	}

	b, err := Encode(msg)
	require.NoError(t, err)
	require.Len(t, b, MinWireSize+3+2)

	assert.Equal(t, bytes.Repeat([]byte{0xaa}, 32), b[:32])
	assert.Equal(t, uint32(3), binary.BigEndian.Uint32(b[32:36]))
	assert.Equal(t, []byte{1, 2, 3}, b[36:39])
	assert.Equal(t, uint32(2), binary.BigEndian.Uint32(b[39:43]))
	assert.Equal(t, []byte{9, 8}, b[43:])
}

func TestWire_RoundTripRealEnvelope(t *testing.T) {
	alice := newRoom(t, "Alice")
	bob := newRoom(t, "Bob")

	msg, err := alice.EncryptStringFor(bob.PublicKey(), "over the wire")
	require.NoError(t, err)
	msg.ID = "encrypted_message:3"

	b, err := msg.MarshalBinary()
	require.NoError(t, err)

	decoded, err := Decode(b)
	require.NoError(t, err)
	assert.Empty(t, decoded.ID)
	assert.Equal(t, msg.SenderPublic, decoded.SenderPublic)
	assert.Equal(t, msg.Nonce, decoded.Nonce)
	assert.Equal(t, msg.Ciphertext, decoded.Ciphertext)

	text, err := bob.DecryptStringFrom(decoded)
	require.NoError(t, err)
	assert.Equal(t, "over the wire", text)
}

func TestWire_MinimalEnvelope(t *testing.T) {
	b := make([]byte, MinWireSize)
	m, err := Decode(b)
	require.NoError(t, err)
	assert.Empty(t, m.Nonce)
	assert.Empty(t, m.Ciphertext)
}

func TestWire_RejectsShortInput(t *testing.T) {
	for n := 0; n < MinWireSize; n++ {
		_, err := Decode(make([]byte, n))
		assert.ErrorIs(t, err, ErrMalformedEnvelope, "length %d", n)
	}
}

func TestWire_RejectsLengthMismatch(t *testing.T) {
	good, err := Encode(&EncryptedMessage{
		SenderPublic: filledKey(1),
		Nonce:        make([]byte, NonceSize),
		Ciphertext:   make([]byte, 20),
	})
	require.NoError(t, err)

	cases := map[string][]byte{
		"trailing byte": append(bytes.Clone(good), 0),
		"truncated":     good[:len(good)-1],
		"huge nonce len": func() []byte {
			b := bytes.Clone(good)
			binary.BigEndian.PutUint32(b[32:36], 0xffffffff)
			return b
		}(),
		"huge ciphertext len": func() []byte {
			b := bytes.Clone(good)
			binary.BigEndian.PutUint32(b[36+NonceSize:], 0xffffffff)
			return b
		}(),
		"short ciphertext len": func() []byte {
			b := bytes.Clone(good)
			binary.BigEndian.PutUint32(b[36+NonceSize:], 19)
			return b
		}(),
	}

	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(b)
			assert.ErrorIs(t, err, ErrMalformedEnvelope)
		})
	}
}

func genEnvelope(t *rapid.T) *EncryptedMessage {
	var sender model.Key
	copy(sender[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "sender"))
	return &EncryptedMessage{
		SenderPublic: sender,
		Nonce:        rapid.SliceOf(rapid.Byte()).Draw(t, "nonce"),
		Ciphertext:   rapid.SliceOf(rapid.Byte()).Draw(t, "ciphertext"),
	}
}

func TestRapid_WireRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		msg := genEnvelope(t)
		b, err := Encode(msg)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.SenderPublic != msg.SenderPublic ||
			!bytes.Equal(got.Nonce, msg.Nonce) ||
			!bytes.Equal(got.Ciphertext, msg.Ciphertext) {
			t.Fatalf("round trip mismatch")
		}
	})
}

func TestRapid_DecodeArbitraryBytesNeverPanics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := rapid.SliceOf(rapid.Byte()).Draw(t, "input")
		m, err := Decode(b)
		if err != nil {
			return
		}
		again, err := Encode(m)
		if err != nil {
			t.Fatalf("re-encode: %v", err)
		}
		if !bytes.Equal(again, b) {
			t.Fatalf("accepted input does not re-encode identically")
		}
	})
}

func TestRapid_EnvelopeRoundTrip(t *testing.T) {
	alice := newRoom(t, "Alice")
	bob := newRoom(t, "Bob")

	rapid.Check(t, func(rt *rapid.T) {
		plaintext := rapid.SliceOf(rapid.Byte()).Draw(rt, "plaintext")
		msg, err := alice.EncryptFor(bob.PublicKey(), plaintext)
		if err != nil {
			rt.Fatalf("encrypt: %v", err)
		}
		got, err := bob.DecryptFrom(msg)
		if err != nil {
			rt.Fatalf("decrypt: %v", err)
		}
		if !bytes.Equal(got, plaintext) {
			rt.Fatalf("plaintext mismatch")
		}
	})
}
