package keyValStore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/disk"
	"github.com/sirupsen/logrus"
)

// calculateDirectorySize calculates the total size of files within a directory
func calculateDirectorySize(path string) (size int64, err error) {
	err = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return
}

// logDiskUsage logs free space and the store's own footprint for each path.
func (k *KeyValStore) logDiskUsage() error {
	for _, path := range k.config.Paths[:1] {
		usage, err := disk.Usage(path)
		if err != nil {
			return fmt.Errorf("retrieving disk usage for %s: %w", path, err)
		}

		pathSize, err := calculateDirectorySize(path)
		if err != nil {
			return fmt.Errorf("calculating directory size for %s: %w", path, err)
		}

		k.log.WithFields(logrus.Fields{
			"path":        path,
			"fstype":      usage.Fstype,
			"total_gb":    fmt.Sprintf("%.2f", float64(usage.Total)/1e9),
			"free_gb":     fmt.Sprintf("%.2f", float64(usage.Free)/1e9),
			"store_bytes": pathSize,
		}).Info("disk usage")
	}
	return nil
}
