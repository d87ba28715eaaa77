// Package manifest loads and validates desired-principal manifests from the
// local filesystem or S3.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quickops/quicksuite-admin/internal/domain"
)

// ObjectFetcher reads one remote object. Satisfied by S3Fetcher; tests
// substitute an in-memory implementation.
type ObjectFetcher interface {
	Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Loader reads manifests by path. Paths starting with s3:// go through the
// fetcher; everything else is a local file.
type Loader struct {
	fetcher ObjectFetcher
	roles   domain.RoleMapping
}

// NewLoader creates a loader. fetcher may be nil when S3 paths are not used.
func NewLoader(fetcher ObjectFetcher, roles domain.RoleMapping) *Loader {
	return &Loader{fetcher: fetcher, roles: roles}
}

// Load reads, decodes and validates a manifest. Validation is
// all-or-nothing: a single malformed entry rejects the whole manifest
// before any remote write happens.
func (l *Loader) Load(ctx context.Context, manifestPath string) (*domain.Manifest, error) {
	reader, err := l.open(ctx, manifestPath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", manifestPath, err)
	}

	var m domain.Manifest
	if isYAMLPath(manifestPath) {
		err = yaml.Unmarshal(data, &m)
	} else {
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", manifestPath, err)
	}

	if err := m.Validate(l.roles); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", manifestPath, err)
	}

	return &m, nil
}

func (l *Loader) open(ctx context.Context, manifestPath string) (io.ReadCloser, error) {
	bucket, key, ok := splitS3Path(manifestPath)
	if !ok {
		f, err := os.Open(manifestPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open manifest: %w", err)
		}
		return f, nil
	}

	if l.fetcher == nil {
		return nil, fmt.Errorf("%w: s3 manifest paths require an object fetcher", domain.ErrInvalidInput)
	}
	return l.fetcher.Fetch(ctx, bucket, key)
}

func isYAMLPath(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// splitS3Path parses s3://bucket/key paths.
func splitS3Path(p string) (bucket, key string, ok bool) {
	const prefix = "s3://"
	if !strings.HasPrefix(p, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(p, prefix)
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
