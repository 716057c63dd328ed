package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vtk-it/declaro/internal/config"
	"go.uber.org/fx"
)

// ErrNotFound reports a receipt key with no stored asset behind it.
var ErrNotFound = errors.New("receipt not found")

var Module = fx.Module("storage",
	fx.Provide(ProvideReceiptStore),
)

// ReceiptStore persists receipt assets by key. Keys are flat names,
// no directories.
type ReceiptStore interface {
	Save(key string, data []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	List() ([]string, error)
}

// LocalStore keeps receipt assets on the local filesystem.
type LocalStore struct {
	basePath string
}

func ProvideReceiptStore(cfg config.Config) (ReceiptStore, error) {
	return NewLocalStore(cfg.ReceiptDir)
}

func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating receipt directory: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

func (s *LocalStore) Save(key string, data []byte) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing receipt: %w", err)
	}
	return nil
}

func (s *LocalStore) Get(key string) ([]byte, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("reading receipt: %w", err)
	}
	return data, nil
}

func (s *LocalStore) Delete(key string) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("deleting receipt: %w", err)
	}
	return nil
}

func (s *LocalStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		keys = append(keys, e.Name())
	}
	return keys, nil
}

func (s *LocalStore) keyPath(key string) (string, error) {
	clean := filepath.Base(strings.TrimSpace(key))
	if clean == "" || clean == "." || clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid receipt key %q", key)
	}
	return filepath.Join(s.basePath, clean), nil
}
