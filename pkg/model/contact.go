package model

import (
	"encoding/json"
	"time"
)

const ContactKeyPrefix = "contact"

// Contact is a directory entry for a correspondent. It holds the human
// facing metadata and trust flags; it is independent of the key set an
// exchange identity learns while encrypting and decrypting.
type Contact struct {
	ID string `json:"id,omitempty"`

	Name      string `json:"name"`
	PublicKey Key    `json:"public_key"`

	Nickname *string `json:"nickname,omitempty"`
	Email    *string `json:"email,omitempty"`

	// Verified and Blocked feed higher level trust decisions only. They are
	// never consulted by encryption or decryption.
	Verified bool `json:"verified"`
	Blocked  bool `json:"blocked"`

	// CreatedAt and LastSeen are unix seconds.
	CreatedAt int64  `json:"created_at"`
	LastSeen  *int64 `json:"last_seen"`
}

func now() int64 {
	return time.Now().Unix()
}

// NewContact returns a contact created now.
func NewContact(name string, publicKey Key) *Contact {
	return &Contact{
		Name:      name,
		PublicKey: publicKey,
		CreatedAt: now(),
	}
}

func (c *Contact) EntityID() string  { return c.ID }
func (c *Contact) KeyPrefix() string { return ContactKeyPrefix }

// SetEntityID assigns the store id. An id that is already set is kept.
func (c *Contact) SetEntityID(id string) {
	if c.ID == "" {
		c.ID = id
	}
}

func (c *Contact) SetNickname(nickname *string) { c.Nickname = nickname }
func (c *Contact) SetEmail(email *string)       { c.Email = email }
func (c *Contact) SetVerified(verified bool)    { c.Verified = verified }
func (c *Contact) SetBlocked(blocked bool)      { c.Blocked = blocked }

// UpdateLastSeen stamps LastSeen with the current time.
func (c *Contact) UpdateLastSeen() {
	ts := now()
	c.LastSeen = &ts
}

// DisplayName prefers the nickname over the name.
func (c *Contact) DisplayName() string {
	if c.Nickname != nil {
		return *c.Nickname
	}
	return c.Name
}

func (c *Contact) ToJSON() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func ContactFromJSON(s string) (*Contact, error) {
	var c Contact
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByPublicKey returns the first contact holding key.
func FindByPublicKey(contacts []Contact, key Key) (*Contact, bool) {
	for i := range contacts {
		if contacts[i].PublicKey == key {
			return &contacts[i], true
		}
	}
	return nil, false
}

// FindByPublicKeys returns every contact whose key is in keys.
func FindByPublicKeys(contacts []Contact, keys map[Key]struct{}) []Contact {
	var out []Contact
	for _, c := range contacts {
		if _, ok := keys[c.PublicKey]; ok {
			out = append(out, c)
		}
	}
	return out
}

func FilterNonBlocked(contacts []Contact) []Contact {
	var out []Contact
	for _, c := range contacts {
		if !c.Blocked {
			out = append(out, c)
		}
	}
	return out
}

func FilterVerified(contacts []Contact) []Contact {
	var out []Contact
	for _, c := range contacts {
		if c.Verified {
			out = append(out, c)
		}
	}
	return out
}
