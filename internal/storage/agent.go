// Package storage resolves extraction inputs: a local directory of MCAP
// files, or a remote bucket URL downloaded into a temporary directory.
package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"mcapx/internal/config"
)

// Agent downloads recording files from an S3-compatible object store.
type Agent struct {
	client *minio.Client
	log    zerolog.Logger
}

// NewAgent builds a client for one endpoint with static credentials.
func NewAgent(endpoint string, secure bool, creds config.S3, log zerolog.Logger) (*Agent, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKey, creds.SecretKey, ""),
		Secure: secure,
		Region: creds.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: client init: %w", err)
	}
	return &Agent{client: client, log: log}, nil
}

// DownloadDir downloads every object under prefix into localDir, flattening
// object keys to their base names. Cancellation stops between objects; the
// partially downloaded directory is the caller's to clean up.
func (a *Agent) DownloadDir(ctx context.Context, bucket, prefix, localDir string) error {
	exists, err := a.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("storage: bucket %s: %w", bucket, err)
	}
	if !exists {
		return fmt.Errorf("storage: bucket %s does not exist", bucket)
	}

	objects := a.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return fmt.Errorf("storage: list %s/%s: %w", bucket, prefix, obj.Err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		local := filepath.Join(localDir, path.Base(obj.Key))
		a.log.Info().Str("object", obj.Key).Msg("downloading")
		if err := a.client.FGetObject(ctx, bucket, obj.Key, local, minio.GetObjectOptions{}); err != nil {
			return fmt.Errorf("storage: download %s/%s: %w", bucket, obj.Key, err)
		}
	}
	return nil
}
