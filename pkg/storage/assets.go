package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AssetStore persists uploaded files on disk under a base directory and
// resolves their public URLs. Paths handed out are relative
// ("receipts/<name>.png") so records stay portable across hosts.
type AssetStore struct {
	baseDir string
	baseURL string
}

// NewAssetStore ensures the base directory exists and returns a handle.
func NewAssetStore(baseDir, baseURL string) (*AssetStore, error) {
	if baseDir == "" {
		baseDir = "./storage"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &AssetStore{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Store copies the reader into a freshly named file under the given bucket
// and returns the relative asset path.
func (s *AssetStore) Store(bucket, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	rel := filepath.ToSlash(filepath.Join(bucket, uuid.NewString()+ext))
	abs := filepath.Join(s.baseDir, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("prepare asset directory: %w", err)
	}
	file, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write asset file: %w", err)
	}
	return rel, nil
}

// Delete removes a stored asset. Absence of the file is not an error; the
// boolean reports whether the file is gone afterwards.
func (s *AssetStore) Delete(rel string) bool {
	if rel == "" {
		return true
	}
	err := os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(rel)))
	return err == nil || os.IsNotExist(err)
}

// Exists reports whether the asset is present on disk.
func (s *AssetStore) Exists(rel string) bool {
	if rel == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(s.baseDir, filepath.FromSlash(rel)))
	return err == nil
}

// URL returns the absolute public URL for a stored asset path.
func (s *AssetStore) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return s.baseURL + "/storage/" + strings.TrimLeft(filepath.ToSlash(rel), "/")
}

// StaticURL resolves a path under the public static root (default avatars
// and similar bundled images).
func (s *AssetStore) StaticURL(rel string) string {
	return s.baseURL + "/" + strings.TrimLeft(rel, "/")
}

// Dir exposes the base directory (served as /storage by the router).
func (s *AssetStore) Dir() string {
	return s.baseDir
}
