// Package upload проверяет входящий файл до любой обработки: тип и размер.
package upload

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// MaxFileSize — верхняя граница размера загружаемого файла (включительно).
const MaxFileSize int64 = 10 * 1024 * 1024

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

var (
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrEmptyFile       = errors.New("empty file")
)

// Kind говорит, какое именно ограничение нарушено.
type Kind string

const (
	KindUnsupportedType Kind = "unsupported_type"
	KindTooLarge        Kind = "too_large"
	KindEmpty           Kind = "empty"
)

// ValidationError — отказ валидатора с сообщением для пользователя.
type ValidationError struct {
	Kind    Kind
	Message string
	err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.err }

// Validate проверяет заявленный браузером MIME-тип и размер файла.
// Содержимое не читается: заявленному типу доверяем на этом уровне.
func Validate(contentType string, size int64) error {
	if !IsAllowedType(contentType) {
		return &ValidationError{
			Kind:    KindUnsupportedType,
			Message: "Invalid file type. Only JPEG, PNG, WebP, and GIF images are allowed.",
			err:     fmt.Errorf("%w: %q", ErrUnsupportedType, contentType),
		}
	}
	if size <= 0 {
		return &ValidationError{
			Kind:    KindEmpty,
			Message: "File is empty.",
			err:     ErrEmptyFile,
		}
	}
	if size > MaxFileSize {
		return &ValidationError{
			Kind:    KindTooLarge,
			Message: "File too large. Maximum size is 10MB.",
			err:     fmt.Errorf("%w: %d bytes", ErrFileTooLarge, size),
		}
	}
	return nil
}

// IsAllowedType сообщает, входит ли тип в список разрешённых.
func IsAllowedType(contentType string) bool {
	_, ok := allowedTypes[NormalizeType(contentType)]
	return ok
}

// NormalizeType отбрасывает параметры ("; charset=...") и приводит тип к нижнему регистру.
func NormalizeType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// Extension возвращает расширение для ключа в хранилище: из имени файла,
// а если его нет, то из подтипа MIME.
func Extension(fileName, contentType string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if safeExt(ext) {
		return ext
	}
	subtype := NormalizeType(contentType)
	if idx := strings.Index(subtype, "/"); idx >= 0 {
		subtype = subtype[idx+1:]
	}
	if subtype == "jpeg" {
		return "jpg"
	}
	if subtype == "" {
		return "bin"
	}
	return subtype
}

func safeExt(ext string) bool {
	if ext == "" || len(ext) > 10 {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
