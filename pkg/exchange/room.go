package exchange

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/meeseeks/nuntius/pkg/model"
)

const RoomKeyPrefix = "room"

// Room is an exchange identity: a named X25519 keypair plus the public keys
// of every peer it has talked to.
type Room struct {
	ID          string
	Name        string
	Description string
	MemberCount uint32

	secretKey     model.Key
	publicKey     model.Key
	knownContacts map[model.Key]struct{}
}

// New creates a Room with a freshly generated keypair.
func New(name string) (*Room, error) {
	secret, public, err := generateKeypair()
	if err != nil {
		return nil, err
	}
	return &Room{
		Name:          name,
		secretKey:     secret,
		publicKey:     public,
		knownContacts: make(map[model.Key]struct{}),
	}, nil
}

// NewWithContacts creates a Room that already knows peers.
func NewWithContacts(name string, peers ...model.Key) (*Room, error) {
	r, err := New(name)
	if err != nil {
		return nil, err
	}
	for _, p := range peers {
		r.AddContact(p)
	}
	return r, nil
}

// FromValues rebuilds a Room from persisted key material. The public key
// must be the X25519 image of the secret key, otherwise ErrKeyMismatch.
func FromValues(
	id, name, description string,
	memberCount uint32,
	secretKey, publicKey model.Key,
	knownContacts []model.Key,
) (*Room, error) {
	derived, err := publicFromSecret(secretKey)
	if err != nil || derived != publicKey {
		return nil, ErrKeyMismatch
	}

	r := &Room{
		ID:            id,
		Name:          name,
		Description:   description,
		MemberCount:   memberCount,
		secretKey:     secretKey,
		publicKey:     publicKey,
		knownContacts: make(map[model.Key]struct{}, len(knownContacts)),
	}
	for _, k := range knownContacts {
		r.knownContacts[k] = struct{}{}
	}
	return r, nil
}

func (r *Room) EntityID() string  { return r.ID }
func (r *Room) KeyPrefix() string { return RoomKeyPrefix }

// SetEntityID assigns the store id. An id that is already set is kept.
func (r *Room) SetEntityID(id string) {
	if r.ID == "" {
		r.ID = id
	}
}

func (r *Room) PublicKey() model.Key { return r.publicKey }
func (r *Room) SecretKey() model.Key { return r.secretKey }

// AddContact records peer as known. Adding a known peer is a no-op.
func (r *Room) AddContact(peer model.Key) {
	if r.knownContacts == nil {
		r.knownContacts = make(map[model.Key]struct{})
	}
	r.knownContacts[peer] = struct{}{}
}

func (r *Room) IsKnownContact(peer model.Key) bool {
	_, ok := r.knownContacts[peer]
	return ok
}

func (r *Room) ContactCount() int {
	return len(r.knownContacts)
}

// KnownContacts returns the known peer keys in byte order.
func (r *Room) KnownContacts() []model.Key {
	keys := make([]model.Key, 0, len(r.knownContacts))
	for k := range r.knownContacts {
		keys = append(keys, k)
	}
	model.SortKeys(keys)
	return keys
}

// KnownContactDetails returns the directory entries of known peers.
func (r *Room) KnownContactDetails(all []model.Contact) []model.Contact {
	return model.FindByPublicKeys(all, r.knownContacts)
}

// ContactDetails returns the directory entry for peer if peer is known.
func (r *Room) ContactDetails(all []model.Contact, peer model.Key) (*model.Contact, bool) {
	if !r.IsKnownContact(peer) {
		return nil, false
	}
	return model.FindByPublicKey(all, peer)
}

// IsTrustedContact reports whether peer is known and has a directory
// entry that is not blocked.
func (r *Room) IsTrustedContact(all []model.Contact, peer model.Key) bool {
	c, ok := r.ContactDetails(all, peer)
	return ok && !c.Blocked
}

// EncryptFor seals plaintext for recipient. recipient becomes a known
// contact as a side effect.
func (r *Room) EncryptFor(recipient model.Key, plaintext []byte) (*EncryptedMessage, error) {
	if !r.IsKnownContact(recipient) {
		r.AddContact(recipient)
	}

	aead, err := newPairBox(r.secretKey, recipient)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	nonce, err := randomNonce()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	return &EncryptedMessage{
		SenderPublic: r.publicKey,
		Ciphertext:   aead.Seal(nil, nonce, plaintext, nil),
		Nonce:        nonce,
	}, nil
}

func (r *Room) EncryptStringFor(recipient model.Key, plaintext string) (*EncryptedMessage, error) {
	return r.EncryptFor(recipient, []byte(plaintext))
}

// DecryptFrom opens msg. The sender becomes a known contact as a side
// effect, even when opening fails. A nonce of the wrong length is
// ErrMalformedEnvelope; every other failure is ErrDecryptionFailed.
func (r *Room) DecryptFrom(msg *EncryptedMessage) ([]byte, error) {
	if !r.IsKnownContact(msg.SenderPublic) {
		r.AddContact(msg.SenderPublic)
	}

	if len(msg.Nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce is %d bytes, want %d", ErrMalformedEnvelope, len(msg.Nonce), NonceSize)
	}

	aead, err := newPairBox(r.secretKey, msg.SenderPublic)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	plaintext, err := aead.Open(nil, msg.Nonce, msg.Ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func (r *Room) DecryptStringFrom(msg *EncryptedMessage) (string, error) {
	plaintext, err := r.DecryptFrom(msg)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", ErrInvalidUTF8
	}
	return string(plaintext), nil
}

type roomJSON struct {
	ID            string      `json:"id,omitempty"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	MemberCount   uint32      `json:"member_count"`
	SecretKey     model.Key   `json:"secret_key"`
	PublicKey     model.Key   `json:"public_key"`
	KnownContacts []model.Key `json:"known_contacts"`
}

func (r *Room) MarshalJSON() ([]byte, error) {
	return json.Marshal(roomJSON{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		MemberCount:   r.MemberCount,
		SecretKey:     r.secretKey,
		PublicKey:     r.publicKey,
		KnownContacts: r.KnownContacts(),
	})
}

// UnmarshalJSON applies the same keypair check as FromValues.
func (r *Room) UnmarshalJSON(b []byte) error {
	var in roomJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	loaded, err := FromValues(in.ID, in.Name, in.Description, in.MemberCount, in.SecretKey, in.PublicKey, in.KnownContacts)
	if err != nil {
		return err
	}
	*r = *loaded
	return nil
}

func (r *Room) ToJSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func RoomFromJSON(s string) (*Room, error) {
	var r Room
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, err
	}
	return &r, nil
}
