package services

import (
	"mime/multipart"

	"github.com/yukikurage/collab-task-api/internal/storage"
)

// FileStore persists attachment contents.
type FileStore interface {
	Save(header *multipart.FileHeader) (*storage.StoredFile, error)
	Remove(filename string) error
	RemoveAll(filenames []string)
}
