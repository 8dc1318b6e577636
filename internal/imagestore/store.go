// Package imagestore uploads report photos to object storage and returns
// their public URLs.
package imagestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// DefaultPublicBaseURL serves objects from public Cloud Storage buckets
const DefaultPublicBaseURL = "https://storage.googleapis.com"

// Backend writes objects to a bucket
type Backend interface {
	Put(ctx context.Context, path, contentType string, data []byte) error
	Close() error
}

// Store turns image data URLs into stored objects
type Store struct {
	backend       Backend
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

// New creates a Store writing through backend. Public URLs have the form
// <publicBaseURL>/<bucket>/<path>.
func New(backend Backend, bucket, publicBaseURL string) *Store {
	if publicBaseURL == "" {
		publicBaseURL = DefaultPublicBaseURL
	}
	return &Store{
		backend:       backend,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// Upload stores the image under <userID>/<unix-millis>.<ext> and returns its public URL
func (s *Store) Upload(ctx context.Context, userID, dataURL string) (string, error) {
	img, err := ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}

	path := fmt.Sprintf("%s/%d.%s", userID, s.now().UnixMilli(), img.Extension)
	if err := s.backend.Put(ctx, path, img.ContentType, img.Data); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, path), nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// GCSBackend stores objects in a Google Cloud Storage bucket
type GCSBackend struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// NewGCSBackend connects to Cloud Storage. An empty credentialsFile falls
// back to application default credentials.
func NewGCSBackend(ctx context.Context, bucket, credentialsFile string) (*GCSBackend, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing storage client: %w", err)
	}

	return &GCSBackend{client: client, bucket: client.Bucket(bucket)}, nil
}

// Put writes data to path, replacing any existing object
func (b *GCSBackend) Put(ctx context.Context, path, contentType string, data []byte) error {
	w := b.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object %s: %w", path, err)
	}
	return nil
}

func (b *GCSBackend) Close() error {
	return b.client.Close()
}
