package exchange

import (
	"encoding/json"

	"github.com/meeseeks/nuntius/pkg/model"
)

const MessageKeyPrefix = "encrypted_message"

// EncryptedMessage is the envelope produced by Room.EncryptFor. Only the
// store assigns its ID after creation.
type EncryptedMessage struct {
	ID           string    `json:"id,omitempty"`
	SenderPublic model.Key `json:"sender_public"`
	Ciphertext   []byte    `json:"ciphertext"`
	Nonce        []byte    `json:"nonce"`
}

func (m *EncryptedMessage) EntityID() string  { return m.ID }
func (m *EncryptedMessage) KeyPrefix() string { return MessageKeyPrefix }

func (m *EncryptedMessage) SetEntityID(id string) {
	if m.ID == "" {
		m.ID = id
	}
}

func (m *EncryptedMessage) ToJSON() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func MessageFromJSON(s string) (*EncryptedMessage, error) {
	var m EncryptedMessage
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return &m, nil
}
