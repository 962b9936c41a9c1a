// Package receipts keeps receipt attachments on the local filesystem. Only
// the returned reference is stored with the transaction.
package receipts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"tracker/internal/core"
)

const dir = "receipts"

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// LocalStore writes receipts under <root>/receipts with random names.
type LocalStore struct {
	root     string
	maxBytes int64
}

func NewLocalStore(root string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
		return nil, fmt.Errorf("create receipt directory: %w", err)
	}
	return &LocalStore{root: root, maxBytes: maxBytes}, nil
}

// Root is the directory served as the media root.
func (s *LocalStore) Root() string { return s.root }

// Save stores the image read from r and returns its reference, a slash
// separated path relative to the media root. The content type is sniffed from
// the bytes, never taken from the client.
func (s *LocalStore) Save(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read receipt: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: Receipt exceeds %d bytes.", core.ErrValidation, s.maxBytes)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: The submitted file is empty.", core.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: Upload a valid image. The file you uploaded was either not an image or a corrupted image.", core.ErrValidation)
	}

	ref := path.Join(dir, uuid.NewString()+ext)
	target := filepath.Join(s.root, filepath.FromSlash(ref))

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write receipt: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close receipt: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("store receipt: %w", err)
	}
	return ref, nil
}

// Delete removes a stored receipt. Missing files are not an error.
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	clean := path.Clean(ref)
	if !strings.HasPrefix(clean, dir+"/") || strings.Contains(clean, "..") {
		return fmt.Errorf("refusing to delete %q outside the receipt directory", ref)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete receipt: %w", err)
	}
	return nil
}
