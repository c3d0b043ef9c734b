package blobstore

import (
	"context"
	"fmt"

	appconfig "sitedocs/config"
)

// NewFromConfig builds the configured Store backend.
func NewFromConfig(ctx context.Context, cfg appconfig.BlobStoreConfig) (Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.BasePath == "" {
			return nil, fmt.Errorf("filesystem blob store requires base_path")
		}
		return NewFileSystemStore(cfg.BasePath, cfg.PublicBaseURL)
	case "s3":
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown blob store type: %s", cfg.Type)
	}
}
