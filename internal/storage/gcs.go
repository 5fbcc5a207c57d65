package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"
)

const publicURLPrefix = "https://storage.googleapis.com/"

// GCSStore keeps receipts in a Google Cloud Storage bucket.
type GCSStore struct {
	service *gcs.Service
	bucket  string
}

func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	svc, err := gcs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStore{service: svc, bucket: bucket}, nil
}

func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	obj := &gcs.Object{
		Name:        key,
		ContentType: contentType,
	}

	stored, err := s.service.Objects.Insert(s.bucket, obj).
		Media(bytes.NewReader(data)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.publicURL(stored.Name), nil
}

func (s *GCSStore) Delete(ctx context.Context, url string) error {
	name, ok := s.objectName(url)
	if !ok {
		return ErrNotManaged
	}
	if err := s.service.Objects.Delete(s.bucket, name).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func (s *GCSStore) publicURL(name string) string {
	return publicURLPrefix + s.bucket + "/" + name
}

func (s *GCSStore) objectName(url string) (string, bool) {
	prefix := publicURLPrefix + s.bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
