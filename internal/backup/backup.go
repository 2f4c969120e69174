// Package backup copies the SQLite database file to and from a cloud object
// store. It replaces the original app's Drive upload; the OAuth dance is out
// of scope and the client relies on ambient or file credentials.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Service is the snapshot storage surface consumed by the CLI. It exists so
// tests can swap the cloud client out.
type Service interface {
	Upload(ctx context.Context, objectName, filePath string) error
	Download(ctx context.Context, objectName string) ([]byte, error)
}

// GCS implements Service against a Google Cloud Storage bucket.
type GCS struct {
	bucket string
	opts   []option.ClientOption
}

// NewGCS creates a Service for the given bucket. credentialsFile may be empty,
// in which case Application Default Credentials are used.
func NewGCS(bucket, credentialsFile string) *GCS {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return &GCS{bucket: bucket, opts: opts}
}

// Upload copies a local file into the bucket under the given object name.
func (g *GCS) Upload(ctx context.Context, objectName, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file %q: %w", filePath, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx, g.opts...)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("copy file to storage writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

// Download fetches the bytes of a snapshot object.
func (g *GCS) Download(ctx context.Context, objectName string) ([]byte, error) {
	client, err := storage.NewClient(ctx, g.opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(g.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object %s/%s: %w", g.bucket, objectName, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", g.bucket, objectName, err)
	}
	return data, nil
}
