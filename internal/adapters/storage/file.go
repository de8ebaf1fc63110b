package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
	"github.com/xvierd/flow-grid/internal/ports"
)

// fileKV implements ports.KeyValueStore as one JSON document on disk.
// Reads accept JSONC (comments, trailing commas) so the file can be
// hand-edited; writes are atomic renames.
type fileKV struct {
	path string
	mu   sync.Mutex
}

// Ensure fileKV implements ports.KeyValueStore.
var _ ports.KeyValueStore = (*fileKV)(nil)

// NewFile creates a storage instance persisted to a single JSON file.
func NewFile(path string) (ports.Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return newStore(&fileKV{path: path}, nil), nil
}

// Open selects a backend by name: "sqlite" (default) or "json".
func Open(backend, path string) (ports.Storage, error) {
	switch backend {
	case "", "sqlite":
		return New(path)
	case "json":
		return NewFile(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q: must be sqlite or json", backend)
	}
}

// Load returns the value stored under key.
func (f *fileKV) Load(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, false, err
	}
	v, ok := doc[key]
	return v, ok, nil
}

// Save replaces the value stored under key and rewrites the document.
func (f *fileKV) Save(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc[key] = json.RawMessage(append([]byte(nil), value...))

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	if err := atomic.WriteFile(f.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	return nil
}

// read loads the whole document. A corrupt file is moved aside and
// treated as empty.
func (f *fileKV) read() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	std, err := hujson.Standardize(data)
	if err == nil {
		err = json.Unmarshal(std, &doc)
	}
	if err != nil {
		log.Printf("storage: %s is corrupt, starting empty: %v", f.path, err)
		if renameErr := os.Rename(f.path, f.path+".corrupt"); renameErr != nil {
			log.Printf("storage: failed to move corrupt store aside: %v", renameErr)
		}
		return make(map[string]json.RawMessage), nil
	}
	return doc, nil
}
