package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
)

// FileStore keeps the document in a markdown file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Location() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fail("load", s.path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fail("load", s.path, err)
	}
	return normalize(string(data)), nil
}

func (s *FileStore) Save(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return fail("save", s.path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(s.path, []byte(text)); err != nil {
		return fail("save", s.path, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
