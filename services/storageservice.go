package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hamrotask/model"
)

// MaxUploadSize caps a single upload at 10 MiB.
const MaxUploadSize = 10 << 20

func storageDir() string {
	dir := os.Getenv("STORAGE_DIR")
	if dir == "" {
		dir = "./storage"
	}
	return dir
}

// SaveFile streams the upload to disk under an opaque stored name and
// records the metadata row. The caller-visible name is kept verbatim.
func SaveFile(db *gorm.DB, ownerID string, header *multipart.FileHeader) (*model.File, error) {
	if header.Size > MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dir := storageDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	fileID := uuid.New().String()
	storedName := fileID + filepath.Ext(header.Filename)
	dst, err := os.Create(filepath.Join(dir, storedName))
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(src, MaxUploadSize+1))
	if err != nil {
		os.Remove(dst.Name())
		return nil, err
	}
	if written > MaxUploadSize {
		os.Remove(dst.Name())
		return nil, ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	record := model.File{
		FileID:      fileID,
		OwnerID:     ownerID,
		Name:        header.Filename,
		StoredName:  storedName,
		Size:        written,
		ContentType: contentType,
		CreatedAt:   time.Now(),
	}
	if err := db.Create(&record).Error; err != nil {
		os.Remove(dst.Name())
		return nil, err
	}
	return &record, nil
}

// GetFile loads the metadata row for a file id.
func GetFile(db *gorm.DB, fileID string) (*model.File, error) {
	var record model.File
	if err := db.Where("file_id = ?", fileID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FilePath returns the on-disk location of a stored file.
func FilePath(record *model.File) string {
	return filepath.Join(storageDir(), record.StoredName)
}

// DeleteFile removes the blob and the metadata row. A missing blob is
// not an error, the row is the source of truth.
func DeleteFile(db *gorm.DB, record *model.File) error {
	if err := os.Remove(FilePath(record)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stored file: %w", err)
	}
	return db.Delete(&model.File{}, "file_id = ?", record.FileID).Error
}
