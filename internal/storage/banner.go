package storage

import (
	"os"
	"path/filepath"

	"github.com/fittrack/internal/models"
)

// BannerStore releases workout banner assets when their plan is deleted.
// The actual upload/serving of binary assets lives outside this system.
type BannerStore interface {
	// Remove deletes the stored asset at the given path. Removing the shared
	// placeholder is a no-op.
	Remove(path string) error
}

// LocalBannerStore stores banners on the local filesystem under a media root
type LocalBannerStore struct {
	root string
}

// NewLocalBannerStore creates a LocalBannerStore rooted at dir
func NewLocalBannerStore(dir string) *LocalBannerStore {
	return &LocalBannerStore{root: dir}
}

// Remove deletes the banner file unless it is the default placeholder
func (s *LocalBannerStore) Remove(path string) error {
	if path == "" || path == models.DefaultBanner {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.Clean(path)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
