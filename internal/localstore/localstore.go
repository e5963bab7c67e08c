// Package localstore — файловое key-value хранилище резервной копии.
// Каждый ключ хранится в отдельном файле каталога; запись атомарна
// (временный файл и переименование).
package localstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store хранит строковые значения в каталоге dir.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New создаёт каталог dir при необходимости.
func New(dir string) (*Store, error) {
	const op = "localstore.New"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{dir: dir}, nil
}

// Get возвращает значение ключа. Отсутствующий файл — не ошибка, ok == false.
func (s *Store) Get(key string) (string, bool, error) {
	const op = "localstore.Get"
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return string(data), true, nil
}

// Set записывает значение ключа.
func (s *Store) Set(key, value string) error {
	const op = "localstore.Set"
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) path(key string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(s.dir, name+".json")
}
