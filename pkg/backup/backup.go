// Package backup exports and imports the whole entity store as an
// xz-compressed stream of JSON lines.
package backup

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/meeseeks/nuntius/pkg/keyValStore"
	"github.com/ulikunitz/xz"
)

const formatVersion = 1

var ErrUnsupportedFormat = errors.New("backup: unsupported format")

type header struct {
	Version int `json:"version"`
}

// record is one stored pair. Keys are kept verbatim so ids survive.
type record struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// Stats reports what an export or import touched.
type Stats struct {
	Records int
}

// Export writes every record in the store to w.
func Export(k *keyValStore.KeyValStore, w io.Writer) (Stats, error) {
	var stats Stats

	xw, err := xz.NewWriter(w)
	if err != nil {
		return stats, fmt.Errorf("backup: init xz writer: %w", err)
	}

	enc := json.NewEncoder(xw)
	if err := enc.Encode(header{Version: formatVersion}); err != nil {
		return stats, err
	}

	err = k.Iterate(nil, func(key, value []byte) (bool, error) {
		if err := enc.Encode(record{Key: string(key), Value: value}); err != nil {
			return false, err
		}
		stats.Records++
		return true, nil
	})
	if err != nil {
		return stats, fmt.Errorf("backup: export: %w", err)
	}

	if err := xw.Close(); err != nil {
		return stats, fmt.Errorf("backup: finish xz stream: %w", err)
	}
	return stats, nil
}

// Import restores records from r, overwriting keys that already exist.
// The store's id counter is moved past every imported id.
func Import(k *keyValStore.KeyValStore, r io.Reader) (Stats, error) {
	var stats Stats

	xr, err := xz.NewReader(bufio.NewReader(r))
	if err != nil {
		return stats, fmt.Errorf("backup: init xz reader: %w", err)
	}

	dec := json.NewDecoder(xr)
	var h header
	if err := dec.Decode(&h); err != nil {
		return stats, fmt.Errorf("backup: read header: %w", err)
	}
	if h.Version != formatVersion {
		return stats, fmt.Errorf("%w: version %d", ErrUnsupportedFormat, h.Version)
	}

	var (
		batch  [][2][]byte
		nextID uint64
	)
	for {
		var rec record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("backup: read record %d: %w", stats.Records, err)
		}
		if rec.Key == "" || strings.HasPrefix(rec.Key, "!") {
			return stats, fmt.Errorf("%w: invalid key %q", ErrUnsupportedFormat, rec.Key)
		}

		batch = append(batch, [2][]byte{[]byte(rec.Key), rec.Value})
		if id, ok := idOf(rec.Key); ok && id+1 > nextID {
			nextID = id + 1
		}
		stats.Records++
	}

	if len(batch) > 0 {
		if err := k.WriteBatch(batch); err != nil {
			return stats, fmt.Errorf("backup: import: %w", err)
		}
	}
	if err := k.AdvanceIDs(nextID); err != nil {
		return stats, fmt.Errorf("backup: import: %w", err)
	}
	return stats, nil
}

// idOf extracts the numeric id from "<prefix>:<id>".
func idOf(key string) (uint64, bool) {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return 0, false
	}
	id, err := strconv.ParseUint(key[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
