// Package assets handles file system operations for media assets: the
// public per-media asset directories, temporary upload directories and
// point-of-interest attachments.
package assets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

// Store manages files under the asset data directory. Relative paths stored
// on catalog documents are resolved against the store root; the same
// relative paths become URLs once the CDN base is prefixed at the read
// boundary.
type Store struct {
	root     string
	tempRoot string
}

// NewStore creates a store rooted at dataDir with temporary files under
// tempDir.
func NewStore(dataDir, tempDir string) *Store {
	return &Store{root: dataDir, tempRoot: tempDir}
}

// Root returns the data directory.
func (s *Store) Root() string {
	return s.root
}

// PublicDir returns the relative public asset directory for a media record.
func (s *Store) PublicDir(mediaID string) string {
	return filepath.Join("media", mediaID)
}

// TempDir returns the absolute temporary directory for a media record.
func (s *Store) TempDir(mediaID string) string {
	return filepath.Join(s.tempRoot, mediaID)
}

// FullPath resolves a stored relative path to an absolute one.
func (s *Store) FullPath(relative string) string {
	return filepath.Join(s.root, relative)
}

// Save writes data to a relative path, creating parent directories. The
// write goes through a temporary file so readers never observe a partial
// asset.
func (s *Store) Save(relative string, r io.Reader) error {
	fullPath := s.FullPath(relative)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create asset directory: %w", err)
	}

	tempPath := fullPath + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	_, writeErr := io.Copy(f, r)
	closeErr := f.Close()
	if writeErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write asset: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close asset file: %w", closeErr)
	}
	if err := os.Rename(tempPath, fullPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to finalize asset: %w", err)
	}
	return nil
}

// Remove deletes a single stored file. Removing a file that is already gone
// is not an error.
func (s *Store) Remove(relative string) error {
	err := os.Remove(s.FullPath(relative))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove asset %s: %w", relative, err)
	}
	return nil
}

// Copy duplicates a stored file to another relative path.
func (s *Store) Copy(src, dst string) error {
	in, err := os.Open(s.FullPath(src))
	if err != nil {
		return fmt.Errorf("failed to open source asset: %w", err)
	}
	defer in.Close()
	return s.Save(dst, in)
}

// RemoveDir deletes a relative directory and everything under it.
func (s *Store) RemoveDir(relative string) error {
	full := s.FullPath(relative)
	// Refuse to walk out of the store root.
	if rel, err := filepath.Rel(s.root, full); err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("path escapes asset root: %s", relative)
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("failed to remove asset directory %s: %w", relative, err)
	}
	return nil
}

// RemoveTempDir deletes the temporary directory for a media record.
func (s *Store) RemoveTempDir(mediaID string) error {
	if err := os.RemoveAll(s.TempDir(mediaID)); err != nil {
		return fmt.Errorf("failed to remove temp directory for %s: %w", mediaID, err)
	}
	return nil
}

// DiskUsage reports usage of the filesystem backing the data directory.
type DiskUsage struct {
	Path        string  `json:"path"`
	TotalBytes  uint64  `json:"total_bytes"`
	FreeBytes   uint64  `json:"free_bytes"`
	UsedBytes   uint64  `json:"used_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

// Usage returns disk usage stats for the data directory.
func (s *Store) Usage() (*DiskUsage, error) {
	stat, err := disk.Usage(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat asset filesystem: %w", err)
	}
	return &DiskUsage{
		Path:        s.root,
		TotalBytes:  stat.Total,
		FreeBytes:   stat.Free,
		UsedBytes:   stat.Used,
		UsedPercent: stat.UsedPercent,
	}, nil
}
