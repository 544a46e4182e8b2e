// Package store persists the serialized document. Two backends exist: a
// plain markdown file and a bbolt database keyed by document name.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrPersistence marks every load or save failure. Match it with
	// errors.Is; the concrete value is an *Error.
	ErrPersistence = errors.New("persistence failure")
	ErrNotMarkdown = errors.New("not a markdown file")
)

// Error describes a failed persistence operation.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrPersistence }

func fail(op, path string, err error) error {
	return &Error{Op: op, Path: path, Err: err}
}

// Store loads and saves the whole serialized document.
type Store interface {
	// Load returns the stored text, or "" when nothing was stored yet.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, text string) error
	// Location names the backing file for messages and change watching.
	Location() string
	Close() error
}

const (
	BackendFile = "file"
	BackendBolt = "bolt"
)

// Options select and configure a backend.
type Options struct {
	Backend string
	// Path is the markdown file being edited. With the bolt backend its
	// base name is the document key.
	Path     string
	BoltPath string
}

// Open returns the backend named by opts.Backend; empty means file.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Path), nil
	case BackendBolt:
		return OpenBolt(opts.BoltPath, filepath.Base(opts.Path))
	}
	return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
}

// Export writes text to path, replacing any existing file.
func Export(path, text string) error {
	if err := writeAtomic(path, []byte(text)); err != nil {
		return fail("export", path, err)
	}
	return nil
}

// Import reads a markdown file chosen by the user. Only .md files are
// accepted.
func Import(path string) (string, error) {
	if !IsMarkdown(path) {
		return "", fmt.Errorf("%w: %s", ErrNotMarkdown, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fail("import", path, err)
	}
	return normalize(string(data)), nil
}

func IsMarkdown(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}

// normalize turns CRLF line endings into LF so units never carry a
// trailing carriage return.
func normalize(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
