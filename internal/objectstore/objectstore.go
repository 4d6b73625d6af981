package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

type FileStorer interface {
	Upload(ctx context.Context, file io.Reader, bucket, key, contentType string) (string, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
}

// NewKey builds a collision free object key that keeps the upload's extension.
func NewKey(prefix, filename string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate object key: %w", err)
	}
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".pdf"
	}
	return path.Join(prefix, id.String()+ext), nil
}

// KeyFromURL recovers the object key from a URL returned by Upload.
// Both virtual-hosted (bucket.s3.amazonaws.com/key) and path-style (host/bucket/key) URLs are understood.
func KeyFromURL(fileURL, bucket string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parse file url: %w", err)
	}

	p := strings.TrimPrefix(u.Path, "/")
	if p == "" {
		return "", fmt.Errorf("file url %q has no object key", fileURL)
	}

	if strings.HasPrefix(u.Host, bucket+".") {
		return p, nil
	}
	if rest, ok := strings.CutPrefix(p, bucket+"/"); ok && rest != "" {
		return rest, nil
	}
	return p, nil
}
