// Package storage holds the blob store used for post attachments.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// TooLargeError reports the limit an upload broke. It matches ErrTooLarge.
type TooLargeError struct {
	MaxBytes int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s of %d bytes", ErrTooLarge, e.MaxBytes)
}

func (e *TooLargeError) Is(target error) bool {
	return target == ErrTooLarge
}

// BlobStore persists uploaded files and returns a public URL for them.
type BlobStore interface {
	Put(ctx context.Context, filename, contentType string, body io.Reader) (url string, size int64, err error)
	Delete(ctx context.Context, url string) error
}

// LocalStore writes blobs below a directory served under a base URL.
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir, baseURL string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}, nil
}

// Dir returns the directory blobs are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Put(ctx context.Context, filename, _ string, body io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(filename)))
	target := filepath.Join(s.dir, name)

	f, err := os.Create(target)
	if err != nil {
		return "", 0, err
	}

	reader := body
	if s.maxBytes > 0 {
		reader = io.LimitReader(body, s.maxBytes+1)
	}
	size, err := io.Copy(f, reader)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && s.maxBytes > 0 && size > s.maxBytes {
		err = &TooLargeError{MaxBytes: s.maxBytes}
	}
	if err != nil {
		_ = os.Remove(target)
		return "", 0, err
	}
	return s.baseURL + "/" + name, size, nil
}

func (s *LocalStore) Delete(_ context.Context, url string) error {
	name := path.Base(url)
	if name == "." || name == "/" || !strings.HasPrefix(url, s.baseURL+"/") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
