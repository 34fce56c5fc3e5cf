// Package keyValStore persists entities in an embedded badger database.
//
// Every record lives under "<key_prefix>:<id>" where id comes from a store
// wide monotonic counter. Single operations are durable on return; there
// are no multi-operation transactions, so concurrent read-modify-save
// sequences on the same record are last-write-wins.
package keyValStore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// Keys starting with metaPrefix are internal and never match an entity
// prefix scan.
const (
	metaPrefix = "!"
	nextIDKey  = metaPrefix + "next_id"
)

var ErrNotFound = errors.New("keyValStore: key not found")

type KeyValStore struct {
	config   StoreConfig
	log      *logrus.Logger
	badgerDB *badger.DB
	metrics  *storeMetrics

	idMu   sync.Mutex
	nextID uint64

	pendingWrites atomic.Uint64
	closeOnce     sync.Once
}

func NewKeyValStore(config StoreConfig) (*KeyValStore, error) {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	err := config.checkConfig()
	if err != nil {
		return nil, fmt.Errorf("error checking config for KeyValStore: %w", err)
	}

	metrics, err := newStoreMetrics(config.Registerer)
	if err != nil {
		return nil, fmt.Errorf("registering store metrics: %w", err)
	}

	opts := badger.DefaultOptions(config.Paths[0])
	opts.Logger = nil
	opts.ValueLogFileSize = 1024 * 1024 * 100 // Set max size of each value log file to 100MB
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %s: %w", config.Paths[0], err)
	}

	k := &KeyValStore{
		config:   config,
		log:      config.Logger,
		badgerDB: db,
		metrics:  metrics,
	}

	if err := k.loadNextID(); err != nil {
		db.Close()
		return nil, err
	}

	if err := k.logDiskUsage(); err != nil {
		k.log.WithError(err).Warn("could not report disk usage")
	}

	return k, nil
}

func (k *KeyValStore) loadNextID() error {
	return k.badgerDB.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(nextIDKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading id counter: %w", err)
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt id counter of %d bytes", len(val))
			}
			k.nextID = binary.BigEndian.Uint64(val)
			return nil
		})
	})
}

func (k *KeyValStore) storeNextID(next uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], next)
	return k.badgerDB.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(nextIDKey), buf[:])
	})
}

// NextID hands out the next id. The counter is persisted before the id is
// returned, so ids are never reissued across restarts.
func (k *KeyValStore) NextID() (uint64, error) {
	k.idMu.Lock()
	defer k.idMu.Unlock()

	id := k.nextID
	if err := k.storeNextID(id + 1); err != nil {
		return 0, fmt.Errorf("persisting id counter: %w", err)
	}
	k.nextID = id + 1
	return id, nil
}

// AdvanceIDs makes sure every future id is at least min.
func (k *KeyValStore) AdvanceIDs(min uint64) error {
	k.idMu.Lock()
	defer k.idMu.Unlock()

	if min <= k.nextID {
		return nil
	}
	if err := k.storeNextID(min); err != nil {
		return fmt.Errorf("persisting id counter: %w", err)
	}
	k.nextID = min
	return nil
}

// ComposeKey builds "<prefix>:<id>".
func ComposeKey(prefix string, id uint64) string {
	return prefix + ":" + strconv.FormatUint(id, 10)
}

// Write stores value under key and flushes.
func (k *KeyValStore) Write(key, value []byte) error {
	err := k.badgerDB.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	k.metrics.writes.Inc()
	k.pendingWrites.Add(1)

	_, err = k.Flush()
	return err
}

// WriteBatch stores all pairs and flushes once.
func (k *KeyValStore) WriteBatch(batch [][2][]byte) error {
	wb := k.badgerDB.NewWriteBatch()
	defer wb.Cancel()

	for _, kv := range batch {
		if err := wb.Set(kv[0], kv[1]); err != nil {
			return fmt.Errorf("writing batch: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("writing batch: %w", err)
	}
	k.metrics.writes.Add(float64(len(batch)))
	k.pendingWrites.Add(uint64(len(batch)))

	_, err := k.Flush()
	return err
}

// Read returns the value under key. A missing key yields found == false
// and no error.
func (k *KeyValStore) Read(key []byte) (value []byte, found bool, err error) {
	k.metrics.reads.Inc()
	err = k.badgerDB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %q: %w", key, err)
	}
	return value, true, nil
}

// Remove deletes key and returns the value it held. A missing key is
// ErrNotFound.
func (k *KeyValStore) Remove(key []byte) ([]byte, error) {
	return k.removeIf(key, nil)
}

// removeIf deletes key only when check accepts the stored value. Read,
// check and delete run in one transaction.
func (k *KeyValStore) removeIf(key []byte, check func(value []byte) error) ([]byte, error) {
	var prior []byte
	err := k.badgerDB.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		prior, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(prior); err != nil {
				return err
			}
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("deleting %q: %w", key, err)
	}
	k.metrics.deletes.Inc()
	k.pendingWrites.Add(1)

	if _, err := k.Flush(); err != nil {
		return nil, err
	}
	return prior, nil
}

// Iterate calls fn for every pair whose key starts with prefix, in key
// order. fn returns false to stop early. Internal keys are skipped when
// prefix is empty.
func (k *KeyValStore) Iterate(prefix []byte, fn func(key, value []byte) (bool, error)) error {
	k.metrics.scans.Inc()
	return k.badgerDB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			if isMetaKey(key) {
				continue
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			more, err := fn(key, value)
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
		}
		return nil
	})
}

func isMetaKey(key []byte) bool {
	return len(key) > 0 && key[0] == metaPrefix[0]
}

// Flush syncs outstanding writes to disk and returns how many writes it
// made durable.
func (k *KeyValStore) Flush() (int, error) {
	n := k.pendingWrites.Swap(0)
	if err := k.badgerDB.Sync(); err != nil {
		k.pendingWrites.Add(n)
		return 0, fmt.Errorf("error syncing db: %w", err)
	}
	k.metrics.flushes.Inc()
	return int(n), nil
}

// Clear removes every record. The id counter survives so ids stay unique.
func (k *KeyValStore) Clear() error {
	var keys [][]byte
	err := k.Iterate(nil, func(key, _ []byte) (bool, error) {
		keys = append(keys, key)
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("listing keys to clear: %w", err)
	}

	wb := k.badgerDB.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return fmt.Errorf("clearing store: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}
	k.metrics.deletes.Add(float64(len(keys)))
	k.pendingWrites.Add(uint64(len(keys)))

	k.log.WithField("records", len(keys)).Info("store cleared")
	_, err = k.Flush()
	return err
}

// Clean syncs and runs value log garbage collection.
func (k *KeyValStore) Clean() error {
	if _, err := k.Flush(); err != nil {
		return err
	}

	err := k.badgerDB.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return fmt.Errorf("error cleaning db: %w", err)
	}
	return nil
}

func (k *KeyValStore) Close() error {
	var err error
	k.closeOnce.Do(func() {
		if _, ferr := k.Flush(); ferr != nil {
			k.log.WithError(ferr).Warn("final flush failed")
		}
		err = k.badgerDB.Close()
	})
	return err
}
