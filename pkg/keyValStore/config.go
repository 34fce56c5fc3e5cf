package keyValStore

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/disk"
	"github.com/sirupsen/logrus"
)

type StoreConfig struct {
	Paths            []string // absolute path, at the moment only the first path is used
	MinimumFreeSpace int      // in GB
	Logger           *logrus.Logger
	// Registerer receives the store counters. Nil keeps them unregistered.
	Registerer prometheus.Registerer
}

func (sc *StoreConfig) checkConfig() error {
	if len(sc.Paths) == 0 {
		return errors.New("no path provided in configuration")
	}

	path := sc.Paths[0]
	if err := os.MkdirAll(path, 0o700); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("path is not a directory")
	}

	if sc.MinimumFreeSpace <= 0 {
		return nil
	}
	usage, err := disk.Usage(path)
	if err != nil {
		return fmt.Errorf("reading disk usage: %w", err)
	}
	availableSpaceInGB := usage.Free / (1024 * 1024 * 1024)
	if availableSpaceInGB < uint64(sc.MinimumFreeSpace) {
		return errors.New("not enough space available on disk")
	}

	return nil
}
