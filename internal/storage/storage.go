package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyFile is returned when an upload carries no bytes.
	ErrEmptyFile = errors.New("empty file")
	// ErrInvalidName is returned for names that would escape the upload directory.
	ErrInvalidName = errors.New("invalid file name")
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("file too large")
)

// FileStorage stores task proof images in a local directory.
type FileStorage struct {
	root     string
	maxBytes int64
}

// NewFileStorage creates dir when missing.
func NewFileStorage(dir string, maxBytes int64) (*FileStorage, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload dir must not be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStorage{root: abs, maxBytes: maxBytes}, nil
}

// Dir returns the absolute upload directory.
func (s *FileStorage) Dir() string {
	return s.root
}

// Store copies the uploaded file to <taskID>_<basename> and returns that name. An
// existing file with the same name is replaced.
func (s *FileStorage) Store(fh *multipart.FileHeader, taskID string) (string, error) {
	if fh == nil || fh.Size == 0 {
		return "", ErrEmptyFile
	}
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return "", ErrTooLarge
	}
	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(fh.Filename, "\\", "/")))
	if base == "/" || base == "." || taskID == "" {
		return "", ErrInvalidName
	}
	name := taskID + "_" + base
	dest, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("move upload: %w", err)
	}
	return name, nil
}

// Delete removes a stored file. Blank names and missing files are ignored.
func (s *FileStorage) Delete(name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	target, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

func (s *FileStorage) resolve(name string) (string, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrInvalidName
	}
	target := filepath.Join(s.root, name)
	if filepath.Dir(target) != s.root {
		return "", ErrInvalidName
	}
	return target, nil
}
