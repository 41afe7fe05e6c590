package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

var (
	// ErrTooLarge файл больше допустимого размера.
	ErrTooLarge = errors.New("storage: размер файла превышает лимит")
	// ErrNotImage содержимое не распознано как поддерживаемое изображение.
	ErrNotImage = errors.New("storage: файл не является поддерживаемым изображением")
)

// Разрешённые типы по магическим байтам
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// requestsDir подкаталог для фотографий заявок.
const requestsDir = "requests"

// StoredPhoto результат сохранения фотографии.
type StoredPhoto struct {
	RelativePath string
	PublicURL    string
	Size         int64
	MIME         string
}

// PhotoStorage отвечает за файловое хранилище фотографий заявок.
type PhotoStorage struct {
	rootPath       string
	publicPrefix   string
	maxUploadBytes int64
}

// NewPhotoStorage создаёт файловое хранилище. Файлы доступны снаружи по publicPrefix.
func NewPhotoStorage(rootPath, publicPrefix string, maxUploadMB int64) (*PhotoStorage, error) {
	if err := os.MkdirAll(filepath.Join(rootPath, requestsDir), 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &PhotoStorage{
		rootPath:       rootPath,
		publicPrefix:   strings.TrimSuffix(publicPrefix, "/"),
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Root каталог хранилища на диске.
func (s *PhotoStorage) Root() string {
	return s.rootPath
}

// MaxUploadBytes лимит размера одного файла.
func (s *PhotoStorage) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Save проверяет содержимое по магическим байтам и сохраняет файл под случайным именем.
func (s *PhotoStorage) Save(ctx context.Context, r io.Reader) (*StoredPhoto, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limitedReader := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}
	data, err := io.ReadAll(&limitedReader)
	if err != nil {
		return nil, fmt.Errorf("storage: ошибка чтения файла: %w", err)
	}
	if int64(len(data)) > s.maxUploadBytes {
		return nil, ErrTooLarge
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || !allowedMimeTypes[kind.MIME.Value] {
		return nil, ErrNotImage
	}

	fileName := uuid.NewString() + "." + kind.Extension
	targetPath := filepath.Join(s.rootPath, requestsDir, fileName)
	tempPath := targetPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	relative := path.Join(requestsDir, fileName)
	return &StoredPhoto{
		RelativePath: relative,
		PublicURL:    s.publicPrefix + "/" + relative,
		Size:         int64(len(data)),
		MIME:         kind.MIME.Value,
	}, nil
}

// Delete удаляет файл из хранилища. Отсутствующий файл не ошибка.
func (s *PhotoStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	clean := filepath.Clean("/" + relativePath)
	target := filepath.Join(s.rootPath, clean)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// DecodeDataURL разбирает строку вида data:image/png;base64,.... в байты.
// Тип из заголовка не проверяется: решают магические байты при сохранении.
func DecodeDataURL(dataURL string) (io.Reader, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:")
	if !ok {
		return nil, ErrNotImage
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, ErrNotImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrNotImage
	}

	return bytes.NewReader(data), nil
}
