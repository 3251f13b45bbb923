package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LocalPathPrefix is where Handler is mounted.
const LocalPathPrefix = "/uploads/"

type LocalObjectStore struct {
	baseDir string
	baseURL string
}

var _ ObjectStore = (*LocalObjectStore)(nil)

// NewLocalObjectStore stores objects under dir. URLs are built from
// publicBaseURL, which must point at the server that mounts Handler.
func NewLocalObjectStore(dir, publicBaseURL string) (*LocalObjectStore, error) {
	baseDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", dir, err)
	}
	if err := os.MkdirAll(baseDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", baseDir, err)
	}

	return &LocalObjectStore{
		baseDir: baseDir,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (s *LocalObjectStore) fullpath(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

func (s *LocalObjectStore) PutObject(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	path := s.fullpath(key)
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", key, err)
	}

	_, err = io.Copy(dst, data)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file %s: %w", key, err)
	}
	slog.Info("Object stored locally", "key", key)

	return s.baseURL + LocalPathPrefix + key, nil
}

func (s *LocalObjectStore) DeleteObject(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(s.fullpath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Handler serves stored objects. Mount it at LocalPathPrefix.
func (s *LocalObjectStore) Handler() http.Handler {
	return http.StripPrefix(LocalPathPrefix, http.FileServer(http.Dir(s.baseDir)))
}
