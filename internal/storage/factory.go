package storage

import (
	"context"
	"fmt"

	"github.com/ikkim/configurator-backend/config"
)

// New builds the asset store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Storage(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL), nil
	case "local", "":
		return NewLocalStorage(cfg.LocalRoot, cfg.PublicBaseURL)
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
}
