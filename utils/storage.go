package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// StorageProvider stores evidence binaries for tests/findings. The object key
// is returned so it can be persisted on the Attachment row.
type StorageProvider interface {
	Upload(ctx context.Context, folder string, filename string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, objectKey string) error
}

var storageProvider StorageProvider

// GetStorageProvider returns the configured provider: GCS when GCS_BUCKET is
// set, local disk otherwise (dev).
func GetStorageProvider() StorageProvider {
	if storageProvider != nil {
		return storageProvider
	}
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		storageProvider = &gcsProvider{bucket: bucket}
	} else {
		storageProvider = &localProvider{root: uploadRoot()}
	}
	return storageProvider
}

// SetStorageProvider swaps the provider (tests).
func SetStorageProvider(p StorageProvider) {
	storageProvider = p
}

// GenerateObjectName keeps uploads collision-free while preserving the
// original extension.
func GenerateObjectName(filename string) string {
	return uuid.NewString() + filepath.Ext(filename)
}

func uploadRoot() string {
	if root := os.Getenv("UPLOAD_DIR"); root != "" {
		return root
	}
	return "uploads"
}

type gcsProvider struct {
	bucket string
}

func (g *gcsProvider) Upload(ctx context.Context, folder string, filename string, data []byte, contentType string) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	objectKey := fmt.Sprintf("%s/%s", folder, GenerateObjectName(filename))

	ctx, cancel := context.WithTimeout(ctx, 50*time.Second)
	defer cancel()

	writer := client.Bucket(g.bucket).Object(objectKey).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}
	return objectKey, nil
}

func (g *gcsProvider) Delete(ctx context.Context, objectKey string) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Bucket(g.bucket).Object(objectKey).Delete(ctx)
}

type localProvider struct {
	root string
}

func (l *localProvider) Upload(ctx context.Context, folder string, filename string, data []byte, contentType string) (string, error) {
	_ = ctx
	objectKey := fmt.Sprintf("%s/%s", folder, GenerateObjectName(filename))
	fullPath := filepath.Join(l.root, objectKey)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", err
	}
	return objectKey, nil
}

func (l *localProvider) Delete(ctx context.Context, objectKey string) error {
	_ = ctx
	err := os.Remove(filepath.Join(l.root, objectKey))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
