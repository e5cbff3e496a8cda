// Package storage stores product images on the local filesystem or an
// S3-compatible bucket (AWS S3, MinIO, R2).
//
//	disks, _ := storage.FromConfig(ctx)
//	url, err := disks.Default().Put(ctx, "products/p1/0.jpg", file, "image/jpeg")
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Disk is a storage driver.
type Disk interface {
	// Put writes r to path and returns the public URL.
	Put(ctx context.Context, path string, r io.Reader, contentType string) (string, error)
	// Delete removes path; a missing file is not an error.
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	URL(path string) string
}

// Manager holds the configured disks.
type Manager struct {
	disks       map[string]Disk
	defaultName string
}

// New returns a Manager whose default disk is name.
func New(name string, disks map[string]Disk) *Manager {
	return &Manager{disks: disks, defaultName: name}
}

// FromConfig boots the local disk, plus S3 when S3_BUCKET is set. An S3
// disk that fails to initialise is logged and left out.
func FromConfig(ctx context.Context) (*Manager, error) {
	disks := map[string]Disk{
		"local": NewLocalDisk(config.StorageLocalRoot(), config.StorageURL()),
	}
	if config.StorageS3Bucket() != "" {
		d, err := NewS3Disk(ctx, S3Options{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			BaseURL:  config.StorageS3URL(),
		})
		if err != nil {
			logger.Warn("storage: s3 disk disabled", "error", err)
		} else {
			disks["s3"] = d
		}
	}

	m := New(config.StorageDefault(), disks)
	if _, err := m.Disk(m.defaultName); err != nil {
		return nil, err
	}
	return m, nil
}

// Disk returns the named disk.
func (m *Manager) Disk(name string) (Disk, error) {
	d, ok := m.disks[name]
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

// Default returns the disk named by STORAGE_DISK.
func (m *Manager) Default() Disk {
	return m.disks[m.defaultName]
}

// Local returns the local disk, if configured.
func (m *Manager) Local() (*LocalDisk, bool) {
	d, ok := m.disks["local"].(*LocalDisk)
	return d, ok
}
