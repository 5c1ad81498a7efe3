// internal/adapters/out/gcs/metadata_repository_gcs.go
package gcs

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/joaotav/mpl-core/internal/application/deploy"
)

// MetadataRepositoryGCS stages item metadata JSON in a public GCS bucket and
// returns the public object URL. One object = one item metadata document.
type MetadataRepositoryGCS struct {
	Client *storage.Client
	Bucket string
	Prefix string // object path prefix, e.g. "metadata/"
}

var _ deploy.MetadataUploader = (*MetadataRepositoryGCS)(nil)

func NewMetadataRepositoryGCS(client *storage.Client, bucket string) *MetadataRepositoryGCS {
	return &MetadataRepositoryGCS{
		Client: client,
		Bucket: strings.TrimSpace(bucket),
		Prefix: "metadata/",
	}
}

// UploadMetadata writes one metadata JSON object and returns its public URL.
// Object names are random; staged metadata is content-addressed by the run,
// not by item index.
func (r *MetadataRepositoryGCS) UploadMetadata(ctx context.Context, data []byte) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("MetadataRepositoryGCS: nil storage client")
	}
	if r.Bucket == "" {
		return "", errors.New("MetadataRepositoryGCS: bucket is empty")
	}
	if len(data) == 0 {
		return "", errors.New("MetadataRepositoryGCS: metadata is empty")
	}

	objectPath := r.Prefix + newObjectName() + ".json"

	w := r.Client.Bucket(r.Bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "public, max-age=31536000"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("MetadataRepositoryGCS: write %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("MetadataRepositoryGCS: close %s: %w", objectPath, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", r.Bucket, objectPath), nil
}

func newObjectName() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("meta-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
