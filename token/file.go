package token

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileBackend stores the token in a single file, optionally encrypted.
type FileBackend struct {
	mu     sync.Mutex
	path   string
	cipher *Cipher
}

// FileOption configures a FileBackend.
type FileOption func(*FileBackend) error

// WithEncryptionKey encrypts the token at rest with a key derived from key.
func WithEncryptionKey(key string) FileOption {
	return func(b *FileBackend) error {
		c, err := NewCipher(key)
		if err != nil {
			return err
		}
		b.cipher = c
		return nil
	}
}

// NewFileBackend creates a backend writing to path.
func NewFileBackend(path string, opts ...FileOption) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("token: file path is required")
	}
	b := &FileBackend{path: path}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Path returns the token file location.
func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Load(_ context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("token: read %s: %w", b.path, err)
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", ErrNoToken
	}
	if b.cipher != nil {
		return b.cipher.Decrypt(raw)
	}
	return raw, nil
}

func (b *FileBackend) Save(_ context.Context, raw string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data := raw
	if b.cipher != nil {
		enc, err := b.cipher.Encrypt(raw)
		if err != nil {
			return err
		}
		data = enc
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return fmt.Errorf("token: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".token-*")
	if err != nil {
		return fmt.Errorf("token: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(data); err != nil {
		tmp.Close()
		return fmt.Errorf("token: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("token: write: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("token: chmod: %w", err)
	}
	return os.Rename(tmp.Name(), b.path)
}

func (b *FileBackend) Remove(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("token: remove: %w", err)
	}
	return nil
}
