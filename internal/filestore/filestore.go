// Package filestore abstracts physical image storage for photos, composites
// and template artwork.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store is the physical file storage contract. Paths are opaque keys
// produced by Save and persisted on the owning records.
type Store interface {
	// Save writes r under the given relative path and returns the stored path.
	Save(path string, r io.Reader) (string, error)
	// Open opens a stored file for reading.
	Open(path string) (io.ReadCloser, error)
	// Exists reports whether the path refers to a stored file.
	Exists(path string) bool
	// Remove deletes the file. Removing an absent file is not an error.
	Remove(path string) error
}

// SessionPhotoPath returns the storage path for an individual capture.
func SessionPhotoPath(sessionID, filename string) string {
	return filepath.Join("sessions", sessionID, "photos", filename)
}

// SessionCompositePath returns the storage path for an assembled composite.
func SessionCompositePath(sessionID, filename string) string {
	return filepath.Join("sessions", sessionID, filename)
}

// TemplatePath returns the storage path for template artwork.
func TemplatePath(filename string) string {
	return filepath.Join("templates", filename)
}

// Disk stores files under a single root directory on the local filesystem.
type Disk struct {
	root string
}

// NewDisk constructs a disk store rooted at dir, creating it if needed.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create root: %w", err)
	}
	return &Disk{root: dir}, nil
}

// resolve joins path onto the root, rejecting escapes above it.
func (d *Disk) resolve(path string) (string, error) {
	clean := filepath.Clean(path)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("filestore: invalid path %q", path)
	}
	return filepath.Join(d.root, clean), nil
}

// Save writes the stream to disk, creating parent directories.
func (d *Disk) Save(path string, r io.Reader) (string, error) {
	full, err := d.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("filestore: mkdir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("filestore: create: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("filestore: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("filestore: close: %w", err)
	}
	return filepath.ToSlash(filepath.Clean(path)), nil
}

// Open opens a stored file for reading.
func (d *Disk) Open(path string) (io.ReadCloser, error) {
	full, err := d.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Exists reports whether a regular file is stored at path.
func (d *Disk) Exists(path string) bool {
	full, err := d.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes the file at path. An absent file is not an error.
func (d *Disk) Remove(path string) error {
	if path == "" {
		return nil
	}
	full, err := d.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
