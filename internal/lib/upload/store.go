// Package upload реализует файловое хранилище аватаров пользователей.
//
// Файлы сохраняются под уникальным именем вида <uuid>_<оригинальное имя>,
// чтобы исключить коллизии. Абсолютные http(s)-ссылки (аватары внешнего
// провайдера) не хранятся локально и при разрешении пути возвращаются как есть.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store сохраняет загруженные файлы в корневом каталоге root.
type Store struct {
	root string
}

// New создает хранилище и каталог root, если его еще нет.
func New(root string) (*Store, error) {
	const op = "upload.New"
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{root: root}, nil
}

// Save записывает содержимое src в файл с уникальным именем
// и возвращает имя файла для сохранения в профиле пользователя.
func (s *Store) Save(originalName string, src io.Reader) (string, error) {
	const op = "upload.Save"

	uniqueName := uuid.New().String() + "_" + filepath.Base(originalName)
	dst, err := os.Create(filepath.Join(s.root, uniqueName))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = dst.Close()
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uniqueName, nil
}

// Resolve возвращает путь к сохраненному файлу на диске.
// Внешние http(s)-ссылки возвращаются без изменений.
func (s *Store) Resolve(stored string) string {
	if strings.HasPrefix(stored, "http://") || strings.HasPrefix(stored, "https://") {
		return stored
	}
	return filepath.Join(s.root, stored)
}

// IsExternal сообщает, является ли сохраненное значение внешней ссылкой.
func IsExternal(stored string) bool {
	return strings.HasPrefix(stored, "http://") || strings.HasPrefix(stored, "https://")
}
