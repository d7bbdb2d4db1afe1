package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LocalStore lays out rendered videos on disk under a per-owner directory.
type LocalStore struct {
	outputDir string
}

func NewLocalStore(outputDir string) *LocalStore {
	return &LocalStore{outputDir: outputDir}
}

// VideoPath returns the destination for a new render and creates its parent
// directory.
func (s *LocalStore) VideoPath(owner, scriptID string) (string, error) {
	dir := filepath.Join(s.outputDir, "videos", owner)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	name := fmt.Sprintf("video_%s_%d.mp4", scriptID, time.Now().Unix())
	return filepath.Join(dir, name), nil
}

// Exists reports whether a previously recorded video file is still on disk.
func (s *LocalStore) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
