/*
Package nuntius is the local core of an end-to-end encrypted messenger: room
identities, a contact directory and encrypted envelopes, persisted in an
embedded store.
*/
package nuntius

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/meeseeks/nuntius/pkg/backup"
	"github.com/meeseeks/nuntius/pkg/keyValStore"
	"github.com/sirupsen/logrus"
)

var ErrInvalidPublicKey = errors.New("nuntius: public key must be 32 hex-encoded bytes")

// Nuntius owns the entity store and exposes the local API on top of it.
// It is safe for concurrent use; read-modify-save sequences on the same
// record are last-write-wins.
type Nuntius struct {
	log    *logrus.Logger
	config Config

	store     *keyValStore.KeyValStore
	closeOnce sync.Once
}

// New opens the store under conf.Paths[0].
func New(conf Config) (*Nuntius, error) {
	if len(conf.Paths) == 0 {
		return nil, fmt.Errorf("at least one path must be provided in config")
	}
	if conf.Logger == nil {
		conf.Logger = defaultLogger()
	}

	store, err := keyValStore.NewKeyValStore(keyValStore.StoreConfig{
		Paths:            conf.Paths,
		MinimumFreeSpace: conf.MinimumFreeGB,
		Logger:           conf.Logger,
		Registerer:       conf.Registerer,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating KeyValStore: %w", err)
	}

	conf.Logger.WithField("path", conf.Paths[0]).Info("nuntius opened")

	return &Nuntius{
		log:    conf.Logger,
		config: conf,
		store:  store,
	}, nil
}

var (
	defaultOnce   sync.Once
	defaultHandle *Nuntius
	defaultErr    error
)

// Default returns the process-wide handle, opening it on first use at the
// platform data directory. Later calls return the same handle or error.
func Default() (*Nuntius, error) {
	defaultOnce.Do(func() {
		conf, err := DefaultConfig()
		if err != nil {
			defaultErr = err
			return
		}
		defaultHandle, defaultErr = New(conf)
	})
	return defaultHandle, defaultErr
}

// Store exposes the underlying entity store.
func (n *Nuntius) Store() *keyValStore.KeyValStore {
	return n.store
}

// Flush forces outstanding writes to disk and reports how many were pending.
func (n *Nuntius) Flush() (int, error) {
	return n.store.Flush()
}

// Clear removes every record. Ids keep increasing afterwards.
func (n *Nuntius) Clear() error {
	return n.store.Clear()
}

// Compact runs value log garbage collection.
func (n *Nuntius) Compact() error {
	return n.store.Clean()
}

// Export writes an xz-compressed backup of every record to w.
func (n *Nuntius) Export(w io.Writer) (int, error) {
	stats, err := backup.Export(n.store, w)
	if err != nil {
		return stats.Records, err
	}
	n.log.WithField("records", stats.Records).Info("backup exported")
	return stats.Records, nil
}

// Import restores a backup produced by Export. Existing keys are overwritten.
func (n *Nuntius) Import(r io.Reader) (int, error) {
	stats, err := backup.Import(n.store, r)
	if err != nil {
		return stats.Records, err
	}
	n.log.WithField("records", stats.Records).Info("backup imported")
	return stats.Records, nil
}

// Close releases the store. Close is idempotent.
func (n *Nuntius) Close() error {
	var closeErr error
	n.closeOnce.Do(func() {
		closeErr = n.store.Close()
	})
	return closeErr
}
