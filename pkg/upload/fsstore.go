package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FSStore is the fallback object store: a local directory served by the
// application under a URL prefix. It stands in for the document-store
// vendor's object storage in self-hosted deployments.
type FSStore struct {
	dir    string
	prefix string
}

// NewFSStore creates a store writing files under dir and serving them at
// prefix (for example "/uploads").
func NewFSStore(dir, prefix string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &FSStore{dir: dir, prefix: strings.TrimSuffix(prefix, "/")}, nil
}

// Dir returns the backing directory, for wiring a static file handler.
func (f *FSStore) Dir() string { return f.dir }

// Put writes data under a collision-free name and returns its serving URL.
func (f *FSStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	stored := uuid.NewString() + "-" + sanitizeName(name)
	path := filepath.Join(f.dir, stored)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	return f.prefix + "/" + stored, nil
}

// Delete removes the object a previous Put returned. URLs outside this
// store's prefix are rejected.
func (f *FSStore) Delete(ctx context.Context, url string) error {
	stored, ok := strings.CutPrefix(url, f.prefix+"/")
	if !ok || stored == "" || strings.Contains(stored, "/") {
		return fmt.Errorf("url %q is not served by this store", url)
	}
	if err := os.Remove(filepath.Join(f.dir, stored)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// sanitizeName keeps the stored file name flat and shell-safe.
func sanitizeName(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
