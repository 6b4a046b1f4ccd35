// Package gcstore implements the picture store on Google Cloud Storage.
package gcstore

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewClient creates a Google Cloud Storage client. If credsPath is
// empty, Application Default Credentials are used.
func NewClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// Store uploads, deletes, and resolves public URLs for pictures in one
// bucket. It is shared across requests; the zero value is not usable.
type Store struct {
	client *storage.Client
	bucket string
}

func New(client *storage.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

func (s *Store) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	wc := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // pictures are small; skip chunked uploads
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Bucket(s.bucket).Object(key).Delete(ctx)
}

// PublicURL returns the public URL for key, assuming public read access
// on the bucket.
func (s *Store) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
}
