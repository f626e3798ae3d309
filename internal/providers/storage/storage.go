// Package storage persists uploaded documents on local disk and issues
// time-limited signed URLs for downloads.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidKey = errors.New("invalid_storage_key")
	ErrNotFound   = errors.New("blob_not_found")
)

// Store writes and reads document blobs. Keys are opaque locators
// generated at write time; the original filename lives in the database.
type Store interface {
	Put(ctx context.Context, data io.Reader) (key string, size int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type localStore struct {
	root string
}

func NewLocalStore(root string) (Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &localStore{root: root}, nil
}

func (s *localStore) Put(ctx context.Context, data io.Reader) (string, int64, error) {
	_ = ctx

	key := uuid.NewString()
	path, err := s.path(key)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", 0, err
	}

	file, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}
	size, err := io.Copy(file, data)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, err
	}
	return key, size, nil
}

func (s *localStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	_ = ctx

	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *localStore) Delete(ctx context.Context, key string) error {
	_ = ctx

	path, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// path shards blobs by key prefix and rejects anything that is not a
// bare UUID so keys can never escape the root.
func (s *localStore) path(key string) (string, error) {
	key = strings.TrimSpace(key)
	if _, err := uuid.Parse(key); err != nil {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, key[:2], key), nil
}
