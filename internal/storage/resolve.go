package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mcapx/internal/config"
)

var errEmptySource = errors.New("storage: input source is empty")

// ResolveInput turns source into a sorted list of local MCAP file paths.
// A http(s):// source is treated as a bucket URL: its objects are
// downloaded into a fresh temporary directory which cleanup removes. For a
// local directory source, cleanup is a no-op.
func ResolveInput(ctx context.Context, source string, creds config.S3, log zerolog.Logger) (files []string, cleanup func(), err error) {
	cleanup = func() {}
	if source == "" {
		return nil, cleanup, errEmptySource
	}

	dir := source
	if strings.HasPrefix(source, "http") {
		endpoint, secure, bucket, prefix, err := parseBucketURL(source)
		if err != nil {
			return nil, cleanup, err
		}
		if err := creds.Validate(); err != nil {
			return nil, cleanup, err
		}

		downloadDir := filepath.Join(os.TempDir(), fmt.Sprintf("%s-%.8s", bucket, uuid.NewString()))
		if err := os.MkdirAll(downloadDir, 0o755); err != nil {
			return nil, cleanup, fmt.Errorf("storage: create download dir: %w", err)
		}
		cleanup = func() {
			if err := os.RemoveAll(downloadDir); err != nil {
				log.Error().Err(err).Str("dir", downloadDir).Msg("failed to remove temp directory")
			} else {
				log.Info().Msg("temp directory cleaned")
			}
		}

		agent, err := NewAgent(endpoint, secure, creds, log)
		if err != nil {
			return nil, cleanup, err
		}
		log.Info().Str("bucket", bucket).Str("prefix", prefix).Msg("downloading from bucket")
		if err := agent.DownloadDir(ctx, bucket, prefix, downloadDir); err != nil {
			return nil, cleanup, err
		}
		dir = downloadDir
	}

	files, err = ListMCAPFiles(dir)
	return files, cleanup, err
}

// parseBucketURL splits an s3-over-http URL into endpoint, bucket and key
// prefix. The first path segment names the bucket; the rest is the prefix.
func parseBucketURL(raw string) (endpoint string, secure bool, bucket, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false, "", "", fmt.Errorf("storage: invalid URL %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", false, "", "", fmt.Errorf("storage: URL %q has no host", raw)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", false, "", "", fmt.Errorf("storage: URL %q has no bucket", raw)
	}

	bucket = segments[0]
	prefix = strings.Join(segments[1:], "/")
	return u.Host, u.Scheme == "https", bucket, prefix, nil
}

// ListMCAPFiles returns the sorted .mcap files directly inside dir.
func ListMCAPFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".mcap" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
