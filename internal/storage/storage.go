package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// Store persists receipt objects under a key and returns the URL the expense records.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

var ErrNotManaged = errors.New("url is not managed by this store")

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ContentType maps a receipt file extension to its MIME type.
func ContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// AllowedExtension reports whether filename has one of the accepted image extensions.
func AllowedExtension(filename string) bool {
	_, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

func AllowedExtensions() []string {
	return []string{"jpg", "jpeg", "png", "gif", "webp"}
}
