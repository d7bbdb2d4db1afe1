package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSArchive mirrors finished renders into a Cloud Storage bucket so local
// disk can be reclaimed without losing the deliverables.
type GCSArchive struct {
	client     *storage.Client
	bucket     string
	archiveDir string
}

func NewGCSArchive(ctx context.Context, bucket, archiveDir string) (*GCSArchive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSArchive{
		client:     client,
		bucket:     bucket,
		archiveDir: archiveDir,
	}, nil
}

func (a *GCSArchive) Close() error {
	return a.client.Close()
}

// Archive uploads the local video file and returns its object name.
func (a *GCSArchive) Archive(ctx context.Context, localPath, owner string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open video: %w", err)
	}
	defer func() { _ = file.Close() }()

	objectName := path.Join(a.archiveDir, owner, filepath.Base(localPath))
	w := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "video/mp4"

	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload video: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	return objectName, nil
}

// List returns archived object names for one owner.
func (a *GCSArchive) List(ctx context.Context, owner string) ([]string, error) {
	query := &storage.Query{Prefix: path.Join(a.archiveDir, owner) + "/"}

	var objects []string
	it := a.client.Bucket(a.bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		objects = append(objects, attrs.Name)
	}
	return objects, nil
}
