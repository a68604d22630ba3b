// Package storage keeps task attachments on local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	apierrors "github.com/yukikurage/collab-task-api/internal/errors"
)

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

var allowedMIMETypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
}

const unsupportedType = "File type not supported. Allowed types: jpeg, jpg, png, gif, pdf, doc, docx, txt"

// StoredFile describes a file written by LocalStore.
type StoredFile struct {
	Filename     string
	OriginalName string
	MimeType     string
	Size         int64
}

// LocalStore writes uploads to a single directory under generated names.
type LocalStore struct {
	dir     string
	maxSize int64
	log     *logrus.Logger
}

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(dir string, maxSize int64, log *logrus.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}
	return &LocalStore{dir: dir, maxSize: maxSize, log: log}, nil
}

// Path returns the location of a stored file.
func (s *LocalStore) Path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}

// Save validates and stores an uploaded file.
func (s *LocalStore) Save(header *multipart.FileHeader) (*StoredFile, error) {
	if header.Size > s.maxSize {
		return nil, s.tooLarge()
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return nil, apierrors.Validation(unsupportedType)
	}

	mimeType, err := sniff(header)
	if err != nil {
		return nil, err
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := "file-" + uuid.NewString() + ext
	dst, err := os.OpenFile(s.Path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	size, copyErr := io.Copy(dst, io.LimitReader(src, s.maxSize+1))
	closeErr := dst.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		s.Remove(name)
		return nil, fmt.Errorf("write %s: %w", name, err)
	}
	if size > s.maxSize {
		s.Remove(name)
		return nil, s.tooLarge()
	}

	return &StoredFile{
		Filename:     name,
		OriginalName: filepath.Base(header.Filename),
		MimeType:     mimeType,
		Size:         size,
	}, nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *LocalStore) Remove(filename string) error {
	err := os.Remove(s.Path(filename))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.WithFields(logrus.Fields{
			"file":  filename,
			"error": err,
		}).Warn("Failed to remove stored file")
		return err
	}
	return nil
}

// RemoveAll deletes every listed file, logging failures.
func (s *LocalStore) RemoveAll(filenames []string) {
	for _, name := range filenames {
		_ = s.Remove(name)
	}
}

func (s *LocalStore) tooLarge() error {
	return apierrors.Validation(fmt.Sprintf("File size cannot exceed %s", humanize.Bytes(uint64(s.maxSize))))
}

// sniff detects the content type and checks it against the allow-list,
// walking up the detected type's parents.
func sniff(header *multipart.FileHeader) (string, error) {
	f, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}

	for m := detected; m != nil; m = m.Parent() {
		for _, allowed := range allowedMIMETypes {
			if m.Is(allowed) {
				return allowed, nil
			}
		}
	}
	return "", apierrors.Validation(unsupportedType)
}
