package keyValStore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	ErrMissingIdentifier = errors.New("keyValStore: entity has no identifier")
	ErrWrongNamespace    = errors.New("keyValStore: key is outside the entity's namespace")
)

// Entity is a record with a store-assigned id and a type-scoped key
// namespace. KeyPrefix must return the same constant for every value of a
// type, including the zero value, and must not contain ':'.
type Entity interface {
	EntityID() string
	SetEntityID(id string)
	KeyPrefix() string
}

// entityPtr lets the generic loaders allocate a T and use it as an Entity.
type entityPtr[T any] interface {
	*T
	Entity
}

func scanPrefix(keyPrefix string) []byte {
	return []byte(keyPrefix + ":")
}

// checkNamespace rejects keys that do not belong to keyPrefix, so one
// entity type can never overwrite or delete another's record.
func checkNamespace(keyPrefix, key string) error {
	ns := keyPrefix + ":"
	if !strings.HasPrefix(key, ns) || len(key) == len(ns) {
		return fmt.Errorf("%w: %q is not under %q", ErrWrongNamespace, key, ns)
	}
	return nil
}

// SaveEntity writes e and returns its key. An entity without id gets
// "<prefix>:<next id>" assigned before it is serialized, so the stored
// document carries its own id. An existing id outside the entity's prefix
// is ErrWrongNamespace.
func SaveEntity(k *KeyValStore, e Entity) (string, error) {
	if e.EntityID() == "" {
		id, err := k.NextID()
		if err != nil {
			return "", err
		}
		e.SetEntityID(ComposeKey(e.KeyPrefix(), id))
	}

	key := e.EntityID()
	if err := checkNamespace(e.KeyPrefix(), key); err != nil {
		return "", err
	}
	if err := k.writeEntity(key, e); err != nil {
		return "", err
	}
	return key, nil
}

// UpdateEntity overwrites the record of an entity that has been saved
// before. An entity without id is ErrMissingIdentifier, one whose id lies
// outside its prefix is ErrWrongNamespace.
func UpdateEntity(k *KeyValStore, e Entity) error {
	key := e.EntityID()
	if key == "" {
		return ErrMissingIdentifier
	}
	if err := checkNamespace(e.KeyPrefix(), key); err != nil {
		return err
	}
	return k.writeEntity(key, e)
}

func (k *KeyValStore) writeEntity(key string, e Entity) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("serializing %s: %w", key, err)
	}
	return k.Write([]byte(key), data)
}

// LoadEntity reads the record under key. A missing key returns nil and no
// error. A record whose own id differs from key is returned as stored and
// logged as a warning.
func LoadEntity[T any, PT entityPtr[T]](k *KeyValStore, key string) (PT, error) {
	data, found, err := k.Read([]byte(key))
	if err != nil || !found {
		return nil, err
	}

	e, err := decode[T, PT](key, data)
	if err != nil {
		return nil, err
	}
	if e.EntityID() != key {
		k.log.WithFields(logrus.Fields{
			"key": key,
			"id":  e.EntityID(),
		}).Warn("stored entity id does not match its key")
	}
	return e, nil
}

func decode[T any, PT entityPtr[T]](key string, data []byte) (PT, error) {
	e := PT(new(T))
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("deserializing %s: %w", key, err)
	}
	return e, nil
}

// LoadAllEntities returns every record under keyPrefix in key order. The
// scan is delimiter aware: "room" never matches "room_extra:1".
func LoadAllEntities[T any, PT entityPtr[T]](k *KeyValStore, keyPrefix string) ([]PT, error) {
	return FindEntities[T, PT](k, keyPrefix, func(PT) bool { return true })
}

// FindEntity returns the first record under keyPrefix matching pred.
func FindEntity[T any, PT entityPtr[T]](k *KeyValStore, keyPrefix string, pred func(PT) bool) (PT, error) {
	var match PT
	err := k.Iterate(scanPrefix(keyPrefix), func(key, value []byte) (bool, error) {
		e, err := decode[T, PT](string(key), value)
		if err != nil {
			return false, err
		}
		if pred(e) {
			match = e
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// FindEntities returns every record under keyPrefix matching pred.
func FindEntities[T any, PT entityPtr[T]](k *KeyValStore, keyPrefix string, pred func(PT) bool) ([]PT, error) {
	var out []PT
	err := k.Iterate(scanPrefix(keyPrefix), func(key, value []byte) (bool, error) {
		e, err := decode[T, PT](string(key), value)
		if err != nil {
			return false, err
		}
		if pred(e) {
			out = append(out, e)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the record under key and returns it. A missing key is
// ErrNotFound. The record is kept when key is outside T's prefix or the
// stored value does not decode as T.
func Delete[T any, PT entityPtr[T]](k *KeyValStore, key string) (PT, error) {
	if err := checkNamespace(PT(new(T)).KeyPrefix(), key); err != nil {
		return nil, err
	}

	var prior PT
	_, err := k.removeIf([]byte(key), func(data []byte) error {
		e, err := decode[T, PT](key, data)
		if err != nil {
			return err
		}
		prior = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prior, nil
}
