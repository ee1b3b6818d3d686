package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/welldanyogia/brochure-contact-backend/internal/errors"
)

// Security errors
var (
	ErrPathTraversal = errors.New("path traversal detected")
	ErrFileNotFound  = fmt.Errorf("file not found: %w", apperrors.ErrNotFound)
	ErrFileTooLarge  = errors.New("file exceeds size limit")
	ErrBlockedExt    = errors.New("file extension is blocked")
)

// DefaultMaxFileSize is the per-file ceiling for contact attachments (5 MB)
const DefaultMaxFileSize = 5 * 1024 * 1024

// BlockedExtensions contains file extensions that are never stored, whatever
// their content sniffs as
var BlockedExtensions = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".com": true,
	".pif": true, ".scr": true, ".vbs": true, ".js": true,
	".jar": true, ".ps1": true, ".sh": true, ".bash": true,
	".msi": true, ".dll": true, ".sys": true, ".html": true,
	".htm": true, ".svg": true, ".php": true,
}

// FileStorage defines the interface for attachment storage operations
type FileStorage interface {
	// Save stores content under a generated name keeping the extension of
	// filename and returns the path relative to the storage root.
	Save(filename string, content io.Reader) (string, error)
	Get(filePath string) (io.ReadCloser, error)
	Delete(filePath string) error
}

// localStorage implements FileStorage using local filesystem
type localStorage struct {
	basePath string
	maxSize  int64
	now      func() time.Time
}

// NewLocalStorage creates a new localStorage instance. Files larger than
// maxSize bytes are refused while being written; maxSize <= 0 selects
// DefaultMaxFileSize.
func NewLocalStorage(basePath string, maxSize int64) (FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &localStorage{basePath: basePath, maxSize: maxSize, now: time.Now}, nil
}

// validatePath ensures path is within basePath (prevents traversal)
func (s *localStorage) validatePath(filePath string) (string, error) {
	cleanPath := filepath.Clean(filePath)

	if filepath.IsAbs(cleanPath) || strings.Contains(cleanPath, "..") {
		return "", ErrPathTraversal
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, cleanPath))
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) &&
		absPath != absBase {
		return "", ErrPathTraversal
	}

	return absPath, nil
}

// ValidateFile checks file extension and size against limit
func ValidateFile(filename string, size, limit int64) error {
	ext := strings.ToLower(filepath.Ext(filename))

	if BlockedExtensions[ext] {
		return ErrBlockedExt
	}

	if size > limit {
		return ErrFileTooLarge
	}

	return nil
}

// Save stores a file under <yyyy>/<mm>/<uuid><ext> and returns the relative path
func (s *localStorage) Save(filename string, content io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	uniqueName := uuid.New().String() + ext

	subDir := s.now().UTC().Format("2006/01")
	if err := os.MkdirAll(filepath.Join(s.basePath, subDir), 0755); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	filePath := filepath.ToSlash(filepath.Join(subDir, uniqueName))
	fullPath := filepath.Join(s.basePath, subDir, uniqueName)

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0640)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	// One byte past the limit is enough to detect an oversized upload
	written, err := io.Copy(file, io.LimitReader(content, s.maxSize+1))
	closeErr := file.Close()
	switch {
	case err != nil:
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	case written > s.maxSize:
		os.Remove(fullPath)
		return "", ErrFileTooLarge
	case closeErr != nil:
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", closeErr)
	}

	return filePath, nil
}

// Get retrieves a file by its path
func (s *localStorage) Get(filePath string) (io.ReadCloser, error) {
	fullPath, err := s.validatePath(filePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes a file by its path. A missing file is not an error.
func (s *localStorage) Delete(filePath string) error {
	fullPath, err := s.validatePath(filePath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// DeleteAll removes every path, continuing past failures
func DeleteAll(fs FileStorage, paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := fs.Delete(p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}
