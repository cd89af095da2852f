package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// uploadKinds maps an upload kind to the extension it must carry.
var uploadKinds = map[string]string{
	"resume": ".pdf",
	"jobs":   ".json",
}

// StagedFile is an upload persisted to the staging directory for the duration
// of one request.
type StagedFile struct {
	Name string
	Path string
}

// Discard removes the staged file.
func (f *StagedFile) Discard() error {
	if err := os.Remove(f.Path); err != nil {
		return fmt.Errorf("failed to discard staged upload: %w", err)
	}
	return nil
}

// UploadStore stages multipart uploads on local disk so downstream parsers
// can work with plain file paths.
type UploadStore interface {
	Stage(file *multipart.FileHeader, kind string) (*StagedFile, error)
	EnsureDir() error
}

type uploadStore struct {
	dir string
}

func NewUploadStore(dir string) UploadStore {
	return &uploadStore{dir: dir}
}

func (s *uploadStore) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	return nil
}

// Stage validates the extension against the upload kind and writes the upload
// under a unique name.
func (s *uploadStore) Stage(file *multipart.FileHeader, kind string) (*StagedFile, error) {
	wantExt, ok := uploadKinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown upload kind: %s", kind)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != wantExt {
		return nil, fmt.Errorf("%s upload must be a %s file, got %q", kind, wantExt, ext)
	}

	name := uniqueUploadName(kind, ext)
	path := filepath.Join(s.dir, name)

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create staged file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return nil, fmt.Errorf("failed to write staged file: %w", err)
	}

	return &StagedFile{Name: name, Path: path}, nil
}

func uniqueUploadName(kind, ext string) string {
	return fmt.Sprintf("%s_%s%s", kind, uuid.New().String(), ext)
}
