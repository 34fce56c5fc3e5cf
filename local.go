package nuntius

import (
	"encoding/json"
	"fmt"

	"github.com/meeseeks/nuntius/pkg/exchange"
	"github.com/meeseeks/nuntius/pkg/keyValStore"
	"github.com/meeseeks/nuntius/pkg/model"
)

// The local API speaks JSON strings so a UI process can pass records through
// unchanged. Get and Find report a missing record with found == false.

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// listJSON encodes an empty result as "[]".
func listJSON[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	return toJSON(items)
}

// CreateRoom generates a new identity and saves it.
func (n *Nuntius) CreateRoom(name, description string) (string, error) {
	room, err := exchange.New(name)
	if err != nil {
		return "", err
	}
	room.Description = description

	if _, err := keyValStore.SaveEntity(n.store, room); err != nil {
		return "", err
	}
	return room.ToJSON()
}

func (n *Nuntius) GetRoom(id string) (string, bool, error) {
	room, err := keyValStore.LoadEntity[exchange.Room](n.store, id)
	if err != nil || room == nil {
		return "", false, err
	}
	s, err := room.ToJSON()
	return s, err == nil, err
}

// UpdateRoom overwrites a saved room with its JSON form.
func (n *Nuntius) UpdateRoom(roomJSON string) error {
	room, err := exchange.RoomFromJSON(roomJSON)
	if err != nil {
		return err
	}
	return keyValStore.UpdateEntity(n.store, room)
}

// DeleteRoom removes a room and returns what was stored.
func (n *Nuntius) DeleteRoom(id string) (string, error) {
	room, err := keyValStore.Delete[exchange.Room](n.store, id)
	if err != nil {
		return "", err
	}
	return room.ToJSON()
}

func (n *Nuntius) ListRooms() (string, error) {
	rooms, err := keyValStore.LoadAllEntities[exchange.Room](n.store, exchange.RoomKeyPrefix)
	if err != nil {
		return "", err
	}
	return listJSON(rooms)
}

func (n *Nuntius) FindRoomByName(name string) (string, bool, error) {
	room, err := keyValStore.FindEntity[exchange.Room](n.store, exchange.RoomKeyPrefix, func(r *exchange.Room) bool {
		return r.Name == name
	})
	if err != nil || room == nil {
		return "", false, err
	}
	s, err := room.ToJSON()
	return s, err == nil, err
}

// CreateContact adds a directory entry. hexKey must decode to exactly 32
// bytes, otherwise ErrInvalidPublicKey.
func (n *Nuntius) CreateContact(name, hexKey string) (string, error) {
	key, err := model.ParseKey(hexKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	contact := model.NewContact(name, key)
	if _, err := keyValStore.SaveEntity(n.store, contact); err != nil {
		return "", err
	}
	return contact.ToJSON()
}

func (n *Nuntius) GetContact(id string) (string, bool, error) {
	contact, err := keyValStore.LoadEntity[model.Contact](n.store, id)
	if err != nil || contact == nil {
		return "", false, err
	}
	s, err := contact.ToJSON()
	return s, err == nil, err
}

func (n *Nuntius) UpdateContact(contactJSON string) error {
	contact, err := model.ContactFromJSON(contactJSON)
	if err != nil {
		return err
	}
	return keyValStore.UpdateEntity(n.store, contact)
}

func (n *Nuntius) DeleteContact(id string) (string, error) {
	contact, err := keyValStore.Delete[model.Contact](n.store, id)
	if err != nil {
		return "", err
	}
	return contact.ToJSON()
}

func (n *Nuntius) ListContacts() (string, error) {
	contacts, err := keyValStore.LoadAllEntities[model.Contact](n.store, model.ContactKeyPrefix)
	if err != nil {
		return "", err
	}
	return listJSON(contacts)
}

func (n *Nuntius) FindContactByName(name string) (string, bool, error) {
	contact, err := keyValStore.FindEntity[model.Contact](n.store, model.ContactKeyPrefix, func(c *model.Contact) bool {
		return c.Name == name
	})
	if err != nil || contact == nil {
		return "", false, err
	}
	s, err := contact.ToJSON()
	return s, err == nil, err
}

func (n *Nuntius) loadRoom(id string) (*exchange.Room, error) {
	room, err := keyValStore.LoadEntity[exchange.Room](n.store, id)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("room %s: %w", id, keyValStore.ErrNotFound)
	}
	return room, nil
}

// SendMessage encrypts text from the room for recipientHex. The room is
// saved with the recipient learned and the envelope is stored. It returns
// the envelope key and the wire encoding.
func (n *Nuntius) SendMessage(roomID, recipientHex, text string) (string, []byte, error) {
	recipient, err := model.ParseKey(recipientHex)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	room, err := n.loadRoom(roomID)
	if err != nil {
		return "", nil, err
	}

	msg, err := room.EncryptStringFor(recipient, text)
	if err != nil {
		return "", nil, err
	}
	if err := keyValStore.UpdateEntity(n.store, room); err != nil {
		return "", nil, err
	}

	key, err := keyValStore.SaveEntity(n.store, msg)
	if err != nil {
		return "", nil, err
	}
	wire, err := exchange.Encode(msg)
	if err != nil {
		return "", nil, err
	}
	return key, wire, nil
}

// ReceiveMessage decodes and opens a wire envelope with the room's key.
// The sender is saved as a known contact of the room even when opening
// fails. The envelope is stored only once it opened.
func (n *Nuntius) ReceiveMessage(roomID string, wire []byte) (string, error) {
	msg, err := exchange.Decode(wire)
	if err != nil {
		return "", err
	}
	room, err := n.loadRoom(roomID)
	if err != nil {
		return "", err
	}

	text, decErr := room.DecryptStringFrom(msg)
	if err := keyValStore.UpdateEntity(n.store, room); err != nil {
		return "", err
	}
	if decErr != nil {
		return "", decErr
	}

	if _, err := keyValStore.SaveEntity(n.store, msg); err != nil {
		return "", err
	}
	return text, nil
}

func (n *Nuntius) ListMessages() (string, error) {
	msgs, err := keyValStore.LoadAllEntities[exchange.EncryptedMessage](n.store, exchange.MessageKeyPrefix)
	if err != nil {
		return "", err
	}
	return listJSON(msgs)
}

// UserData returns the profile of username, creating a default one on
// first use.
func (n *Nuntius) UserData(username string) (string, error) {
	u, err := keyValStore.FindEntity[model.UserData](n.store, model.UserDataKeyPrefix, func(u *model.UserData) bool {
		return u.Username == username
	})
	if err != nil {
		return "", err
	}
	if u == nil {
		u = model.DefaultUserData(username)
		if _, err := keyValStore.SaveEntity(n.store, u); err != nil {
			return "", err
		}
	}
	return u.ToJSON()
}

func (n *Nuntius) UpdateUserData(userJSON string) error {
	u, err := model.UserDataFromJSON(userJSON)
	if err != nil {
		return err
	}
	return keyValStore.UpdateEntity(n.store, u)
}
