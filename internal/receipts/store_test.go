package receipts

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tracker/internal/core"
)

// pngHeader is enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root, 1024)
	if err != nil {
		t.Fatal(err)
	}

	ref, err := s.Save(context.Background(), bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(ref, "receipts/") || !strings.HasSuffix(ref, ".png") {
		t.Errorf("ref = %q", ref)
	}
	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref)))
	if err != nil || !bytes.Equal(stored, pngHeader) {
		t.Fatalf("stored file = %q, %v", stored, err)
	}

	if err := s.Delete(context.Background(), ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(ref))); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}
	if err := s.Delete(context.Background(), ref); err != nil {
		t.Errorf("second delete should be a no-op: %v", err)
	}
}

func TestSaveRejects(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), 16)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		body []byte
	}{
		{"empty", nil},
		{"text", []byte("hello")},
		{"too large", append(append([]byte{}, pngHeader...), make([]byte, 32)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Save(context.Background(), bytes.NewReader(tt.body)); !errors.Is(err, core.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestDeleteRefusesTraversal(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), 16)
	if err != nil {
		t.Fatal(err)
	}
	for _, ref := range []string{"../etc/passwd", "receipts/../../x", "other/file.png"} {
		if err := s.Delete(context.Background(), ref); err == nil {
			t.Errorf("Delete(%q) should fail", ref)
		}
	}
}
