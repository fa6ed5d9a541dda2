// Package storage abstracts the object store holding project icons, gallery
// images and version files. Keys are namespaced per project so a whole
// project directory can be dropped in one call during deletion.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/config"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/logger"
	"github.com/google/uuid"
)

// FileStorage is the storage collaborator contract.
type FileStorage interface {
	Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every object under the given key prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// New selects the backend from config.
func New(ctx context.Context, cfg *config.StorageConfig) (FileStorage, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3(ctx, cfg)
	case "", "local":
		logger.Infof("[Storage] Using local disk storage at %s", cfg.LocalPath)
		return NewLocal(cfg.LocalPath), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// ProjectPrefix is the key prefix holding all of a project's objects.
func ProjectPrefix(projectID uint) string {
	return fmt.Sprintf("projects/%d", projectID)
}

// IconKey returns a fresh icon key for a project. A uuid component keeps CDN
// caches from serving a replaced icon.
func IconKey(projectID uint, filename string) string {
	return path.Join(ProjectPrefix(projectID), fmt.Sprintf("icon-%s%s", uuid.NewString()[:8], path.Ext(filename)))
}

// GalleryKey returns the key for a gallery image.
func GalleryKey(projectID uint, filename string) string {
	return path.Join(ProjectPrefix(projectID), "gallery", fmt.Sprintf("%s%s", uuid.NewString()[:8], path.Ext(filename)))
}

// VersionFileKey returns the key for a version file. Keys are minted before
// the version row exists, so a uuid component stands in for the version id.
func VersionFileKey(projectID uint, filename string) string {
	return path.Join(ProjectPrefix(projectID), "versions", fmt.Sprintf("%s-%s", uuid.NewString()[:8], path.Base(filename)))
}
